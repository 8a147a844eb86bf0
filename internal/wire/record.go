package wire

import (
	"encoding/binary"
	"fmt"
)

// ResourceRecord is one entry of a DNS answer, authority, or additional
// section (RFC 1035 Section 4.1.3).
type ResourceRecord struct {
	Name  string
	Class RecordClass
	TTL   uint32
	Data  RData
}

// Type returns the record type, taken from Data.
func (rr ResourceRecord) Type() RecordType { return rr.Data.Type() }

// ParseResourceRecord parses one resource record at *off, advancing
// *off past it.
func ParseResourceRecord(msg []byte, off *int) (ResourceRecord, error) {
	name, err := ParseName(msg, off)
	if err != nil {
		return ResourceRecord{}, err
	}
	if *off+10 > len(msg) {
		return ResourceRecord{}, fmt.Errorf("%w: unexpected EOF reading record header", ErrMalformed)
	}
	rtype := RecordType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	class := RecordClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
	ttl := binary.BigEndian.Uint32(msg[*off+4 : *off+8])
	rdlen := int(binary.BigEndian.Uint16(msg[*off+8 : *off+10]))
	*off += 10

	data, err := ParseRData(msg, off, rtype, rdlen)
	if err != nil {
		return ResourceRecord{}, err
	}
	return ResourceRecord{Name: name, Class: class, TTL: ttl, Data: data}, nil
}

// Write appends rr to buf in wire format, compressing rr.Name and any
// names embedded in its RDATA against nw, and back-patching RDLENGTH
// once the RDATA has actually been written.
func (rr ResourceRecord) Write(buf *[]byte, nw *NameWriter) error {
	if err := nw.Write(buf, rr.Name); err != nil {
		return err
	}

	head := make([]byte, 8)
	binary.BigEndian.PutUint16(head[0:2], uint16(rr.Type()))
	binary.BigEndian.PutUint16(head[2:4], uint16(rr.Class))
	binary.BigEndian.PutUint32(head[4:8], rr.TTL)
	*buf = append(*buf, head...)

	rdlenOffset := len(*buf)
	*buf = append(*buf, 0, 0) // RDLENGTH placeholder, patched below

	rdataStart := len(*buf)
	if err := rr.Data.writeRData(buf, nw); err != nil {
		return err
	}
	rdlen := len(*buf) - rdataStart
	if rdlen > 0xFFFF {
		return fmt.Errorf("%w: rdata for %s exceeds 65535 bytes", ErrMalformed, rr.Name)
	}
	binary.BigEndian.PutUint16((*buf)[rdlenOffset:rdlenOffset+2], uint16(rdlen))
	return nil
}
