package wire

import "fmt"

// Message is a fully parsed DNS message: header plus its four sections.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

// Parse decodes a complete DNS message from msg.
func Parse(msg []byte) (Message, error) {
	off := 0
	header, err := ParseHeader(msg, &off)
	if err != nil {
		return Message{}, err
	}

	m := Message{Header: header}

	m.Questions = make([]Question, 0, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		q, err := ParseQuestion(msg, &off)
		if err != nil {
			return Message{}, fmt.Errorf("question %d: %w", i, err)
		}
		m.Questions = append(m.Questions, q)
	}

	m.Answers, err = parseRRSection(msg, &off, header.ANCount)
	if err != nil {
		return Message{}, fmt.Errorf("answer section: %w", err)
	}
	m.Authorities, err = parseRRSection(msg, &off, header.NSCount)
	if err != nil {
		return Message{}, fmt.Errorf("authority section: %w", err)
	}
	m.Additionals, err = parseRRSection(msg, &off, header.ARCount)
	if err != nil {
		return Message{}, fmt.Errorf("additional section: %w", err)
	}

	return m, nil
}

func parseRRSection(msg []byte, off *int, count uint16) ([]ResourceRecord, error) {
	rrs := make([]ResourceRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		rr, err := ParseResourceRecord(msg, off)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}

// Serialize encodes m to wire format. Records whose type is
// UnimplementedData are dropped from their section before encoding, and
// the header's section counts are rewritten to match what was actually
// written — callers must not pre-filter and must not trust the counts
// on the Message they pass in.
func Serialize(m Message) ([]byte, error) {
	answers := dropUnimplemented(m.Answers)
	authorities := dropUnimplemented(m.Authorities)
	additionals := dropUnimplemented(m.Additionals)

	header := m.Header
	header.QDCount = uint16(len(m.Questions))
	header.ANCount = uint16(len(answers))
	header.NSCount = uint16(len(authorities))
	header.ARCount = uint16(len(additionals))

	buf := make([]byte, 0, 512)
	buf = append(buf, header.Marshal()...)

	nw := NewNameWriter()

	for i, q := range m.Questions {
		if err := q.Write(&buf, nw); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	for i, rr := range answers {
		if err := rr.Write(&buf, nw); err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
	}
	for i, rr := range authorities {
		if err := rr.Write(&buf, nw); err != nil {
			return nil, fmt.Errorf("authority %d: %w", i, err)
		}
	}
	for i, rr := range additionals {
		if err := rr.Write(&buf, nw); err != nil {
			return nil, fmt.Errorf("additional %d: %w", i, err)
		}
	}

	return buf, nil
}

func dropUnimplemented(rrs []ResourceRecord) []ResourceRecord {
	out := make([]ResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		if _, ok := rr.Data.(UnimplementedData); ok {
			continue
		}
		out = append(out, rr)
	}
	return out
}
