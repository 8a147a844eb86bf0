package wire

import (
	"encoding/binary"
	"fmt"
)

// Question represents a single entry of a DNS question section
// (RFC 1035 Section 4.1.2).
type Question struct {
	Name  string
	Type  RecordType
	Class RecordClass
}

// ParseQuestion parses a question at *off, advancing *off past it. The
// name is normalized to lower-case by ParseName. Any class other than
// IN is rejected.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	name, err := ParseName(msg, off)
	if err != nil {
		return Question{}, err
	}
	if *off+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: unexpected EOF while reading question", ErrMalformed)
	}
	q := Question{
		Name:  name,
		Type:  RecordType(binary.BigEndian.Uint16(msg[*off : *off+2])),
		Class: RecordClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4])),
	}
	*off += 4
	if q.Class != ClassIN {
		return Question{}, fmt.Errorf("%w: unsupported class %d", ErrMalformed, q.Class)
	}
	return q, nil
}

// Write appends q to buf, compressing q.Name against nw's dictionary.
func (q Question) Write(buf *[]byte, nw *NameWriter) error {
	if err := nw.Write(buf, q.Name); err != nil {
		return err
	}
	tail := make([]byte, 4)
	binary.BigEndian.PutUint16(tail[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(tail[2:4], uint16(q.Class))
	*buf = append(*buf, tail...)
	return nil
}
