package wire

import (
	"encoding/binary"
	"fmt"
	"net"
)

// RData is the tagged union of resource-record data this codec
// understands. Each concrete type knows its own RecordType and how to
// serialize itself; ParseRData dispatches on the wire type to produce
// the right concrete value.
type RData interface {
	Type() RecordType
	// writeRData appends the wire encoding of the RDATA (not including
	// RDLENGTH) to buf, compressing any embedded names against nw.
	writeRData(buf *[]byte, nw *NameWriter) error
}

// AData is the RDATA of an A record: a 4-byte IPv4 address.
type AData struct {
	Addr [4]byte
}

func (AData) Type() RecordType { return TypeA }

func (d AData) writeRData(buf *[]byte, _ *NameWriter) error {
	*buf = append(*buf, d.Addr[:]...)
	return nil
}

// AAAAData is the RDATA of an AAAA record: a 16-byte IPv6 address.
type AAAAData struct {
	Addr [16]byte
}

func (AAAAData) Type() RecordType { return TypeAAAA }

func (d AAAAData) writeRData(buf *[]byte, _ *NameWriter) error {
	*buf = append(*buf, d.Addr[:]...)
	return nil
}

// NSData is the RDATA of an NS record.
type NSData struct{ NSDName string }

func (NSData) Type() RecordType { return TypeNS }
func (d NSData) writeRData(buf *[]byte, nw *NameWriter) error { return nw.Write(buf, d.NSDName) }

// CNAMEData is the RDATA of a CNAME record.
type CNAMEData struct{ CName string }

func (CNAMEData) Type() RecordType { return TypeCNAME }
func (d CNAMEData) writeRData(buf *[]byte, nw *NameWriter) error { return nw.Write(buf, d.CName) }

// PTRData is the RDATA of a PTR record.
type PTRData struct{ PTRDName string }

func (PTRData) Type() RecordType { return TypePTR }
func (d PTRData) writeRData(buf *[]byte, nw *NameWriter) error { return nw.Write(buf, d.PTRDName) }

// SOAData is the RDATA of an SOA record (RFC 1035 Section 3.3.13).
type SOAData struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (SOAData) Type() RecordType { return TypeSOA }

func (d SOAData) writeRData(buf *[]byte, nw *NameWriter) error {
	if err := nw.Write(buf, d.MName); err != nil {
		return err
	}
	if err := nw.Write(buf, d.RName); err != nil {
		return err
	}
	tail := make([]byte, 20)
	binary.BigEndian.PutUint32(tail[0:4], d.Serial)
	binary.BigEndian.PutUint32(tail[4:8], d.Refresh)
	binary.BigEndian.PutUint32(tail[8:12], d.Retry)
	binary.BigEndian.PutUint32(tail[12:16], d.Expire)
	binary.BigEndian.PutUint32(tail[16:20], d.Minimum)
	*buf = append(*buf, tail...)
	return nil
}

// MXData is the RDATA of an MX record.
type MXData struct {
	Preference uint16
	Exchange   string
}

func (MXData) Type() RecordType { return TypeMX }

func (d MXData) writeRData(buf *[]byte, nw *NameWriter) error {
	pref := make([]byte, 2)
	binary.BigEndian.PutUint16(pref, d.Preference)
	*buf = append(*buf, pref...)
	return nw.Write(buf, d.Exchange)
}

// TXTData is the RDATA of a TXT record. Only a single character-string
// is supported; multi-string TXT records are parsed as Unimplemented.
type TXTData struct{ Text string }

func (TXTData) Type() RecordType { return TypeTXT }

func (d TXTData) writeRData(buf *[]byte, _ *NameWriter) error {
	b := []byte(d.Text)
	if len(b) > 255 {
		return fmt.Errorf("%w: TXT character-string exceeds 255 bytes", ErrMalformed)
	}
	*buf = append(*buf, byte(len(b)))
	*buf = append(*buf, b...)
	return nil
}

// UnimplementedData is the RDATA of any record type this codec parses
// but does not interpret (OPT, HTTPS, multi-string TXT, and anything
// else outside the known set). It is never re-emitted: a forwarded
// answer drops records carrying it.
type UnimplementedData struct {
	RType RecordType
	Raw   []byte
}

func (d UnimplementedData) Type() RecordType { return d.RType }

func (d UnimplementedData) writeRData(*[]byte, *NameWriter) error {
	return fmt.Errorf("%w: record type %d is parse-only and cannot be re-emitted", ErrMalformed, d.RType)
}

// ParseRData parses rdlen bytes of RDATA at *off for the given record
// type, advancing *off by rdlen (name-bearing types advance by however
// much ParseName actually consumed, which must equal rdlen or the
// record is rejected).
func ParseRData(msg []byte, off *int, rtype RecordType, rdlen int) (RData, error) {
	start := *off
	if start+rdlen > len(msg) {
		return nil, fmt.Errorf("%w: unexpected EOF reading rdata", ErrMalformed)
	}

	switch rtype {
	case TypeA:
		if rdlen != 4 {
			return nil, fmt.Errorf("%w: A record RDATA must be 4 bytes, got %d", ErrMalformed, rdlen)
		}
		var d AData
		copy(d.Addr[:], msg[start:start+4])
		*off += 4
		return d, nil

	case TypeAAAA:
		if rdlen != 16 {
			return nil, fmt.Errorf("%w: AAAA record RDATA must be 16 bytes, got %d", ErrMalformed, rdlen)
		}
		var d AAAAData
		copy(d.Addr[:], msg[start:start+16])
		*off += 16
		return d, nil

	case TypeNS:
		name, err := ParseName(msg, off)
		if err != nil {
			return nil, err
		}
		if *off-start != rdlen {
			return nil, fmt.Errorf("%w: NS RDATA length mismatch", ErrMalformed)
		}
		return NSData{NSDName: name}, nil

	case TypeCNAME:
		name, err := ParseName(msg, off)
		if err != nil {
			return nil, err
		}
		if *off-start != rdlen {
			return nil, fmt.Errorf("%w: CNAME RDATA length mismatch", ErrMalformed)
		}
		return CNAMEData{CName: name}, nil

	case TypePTR:
		name, err := ParseName(msg, off)
		if err != nil {
			return nil, err
		}
		if *off-start != rdlen {
			return nil, fmt.Errorf("%w: PTR RDATA length mismatch", ErrMalformed)
		}
		return PTRData{PTRDName: name}, nil

	case TypeSOA:
		mname, err := ParseName(msg, off)
		if err != nil {
			return nil, err
		}
		rname, err := ParseName(msg, off)
		if err != nil {
			return nil, err
		}
		if *off+20 > len(msg) {
			return nil, fmt.Errorf("%w: unexpected EOF reading SOA fixed fields", ErrMalformed)
		}
		d := SOAData{
			MName:   mname,
			RName:   rname,
			Serial:  binary.BigEndian.Uint32(msg[*off : *off+4]),
			Refresh: binary.BigEndian.Uint32(msg[*off+4 : *off+8]),
			Retry:   binary.BigEndian.Uint32(msg[*off+8 : *off+12]),
			Expire:  binary.BigEndian.Uint32(msg[*off+12 : *off+16]),
			Minimum: binary.BigEndian.Uint32(msg[*off+16 : *off+20]),
		}
		*off += 20
		if *off-start != rdlen {
			return nil, fmt.Errorf("%w: SOA RDATA length mismatch", ErrMalformed)
		}
		return d, nil

	case TypeMX:
		if *off+2 > len(msg) {
			return nil, fmt.Errorf("%w: unexpected EOF reading MX preference", ErrMalformed)
		}
		pref := binary.BigEndian.Uint16(msg[*off : *off+2])
		*off += 2
		exchange, err := ParseName(msg, off)
		if err != nil {
			return nil, err
		}
		if *off-start != rdlen {
			return nil, fmt.Errorf("%w: MX RDATA length mismatch", ErrMalformed)
		}
		return MXData{Preference: pref, Exchange: exchange}, nil

	case TypeTXT:
		if rdlen == 0 {
			return nil, fmt.Errorf("%w: TXT RDATA must contain at least one character-string", ErrMalformed)
		}
		clen := int(msg[start])
		if 1+clen != rdlen {
			// Multi-string TXT RDATA; outside this codec's supported shape.
			raw := make([]byte, rdlen)
			copy(raw, msg[start:start+rdlen])
			*off += rdlen
			return UnimplementedData{RType: TypeTXT, Raw: raw}, nil
		}
		text := string(msg[start+1 : start+1+clen])
		*off += rdlen
		return TXTData{Text: text}, nil

	default:
		raw := make([]byte, rdlen)
		copy(raw, msg[start:start+rdlen])
		*off += rdlen
		return UnimplementedData{RType: rtype, Raw: raw}, nil
	}
}

// IPv4String returns the dotted-decimal form of an AData's address.
func (d AData) IPv4String() string {
	return net.IP(d.Addr[:]).String()
}
