package wire

import "testing"

func buildQuery(t *testing.T, id uint16, name string, qtype RecordType) []byte {
	t.Helper()
	m := Message{
		Header: Header{ID: id, Flags: RDFlag, QDCount: 1},
		Questions: []Question{
			{Name: name, Type: qtype, Class: ClassIN},
		},
	}
	b, err := Serialize(m)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return b
}

func TestRoundTrip_QueryAndResponse(t *testing.T) {
	query := buildQuery(t, 0x1234, "example.com", TypeA)

	parsed, err := Parse(query)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if parsed.Header.ID != 0x1234 {
		t.Fatalf("id = %x", parsed.Header.ID)
	}
	if len(parsed.Questions) != 1 || parsed.Questions[0].Name != "example.com." {
		t.Fatalf("questions = %+v", parsed.Questions)
	}

	resp := Message{
		Header: Header{ID: parsed.Header.ID, Flags: QRFlag | RDFlag | RAFlag, QDCount: 1, ANCount: 1},
		Questions: parsed.Questions,
		Answers: []ResourceRecord{
			{Name: "example.com.", Class: ClassIN, TTL: 300, Data: AData{Addr: [4]byte{93, 184, 216, 34}}},
		},
	}
	wire, err := Serialize(resp)
	if err != nil {
		t.Fatalf("serialize response: %v", err)
	}

	roundTripped, err := Parse(wire)
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if roundTripped.Header.ANCount != 1 || len(roundTripped.Answers) != 1 {
		t.Fatalf("answers = %+v", roundTripped.Answers)
	}
	a, ok := roundTripped.Answers[0].Data.(AData)
	if !ok {
		t.Fatalf("answer data type = %T", roundTripped.Answers[0].Data)
	}
	if a.IPv4String() != "93.184.216.34" {
		t.Fatalf("ip = %s", a.IPv4String())
	}
}

func TestSerialize_CompressesRepeatedNames(t *testing.T) {
	m := Message{
		Header:    Header{ID: 1, Flags: QRFlag, QDCount: 1, ANCount: 2},
		Questions: []Question{{Name: "example.com.", Type: TypeA, Class: ClassIN}},
		Answers: []ResourceRecord{
			{Name: "example.com.", Class: ClassIN, TTL: 60, Data: AData{Addr: [4]byte{1, 1, 1, 1}}},
			{Name: "example.com.", Class: ClassIN, TTL: 60, Data: AData{Addr: [4]byte{2, 2, 2, 2}}},
		},
	}
	wire, err := Serialize(m)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	// Uncompressed this would need 3 full copies of "example.com"
	// (13 bytes each); compressed it should need far less.
	if len(wire) >= HeaderSize+3*13+2*4+2*10 {
		t.Fatalf("wire size %d suggests no compression occurred", len(wire))
	}
}

func TestSerialize_DropsUnimplementedRecords(t *testing.T) {
	m := Message{
		Header: Header{ID: 1, Flags: QRFlag, ANCount: 2},
		Answers: []ResourceRecord{
			{Name: "example.com.", Class: ClassIN, TTL: 60, Data: AData{Addr: [4]byte{1, 1, 1, 1}}},
			{Name: "example.com.", Class: ClassIN, TTL: 60, Data: UnimplementedData{RType: TypeHTTPS, Raw: []byte{1, 2, 3}}},
		},
	}
	wire, err := Serialize(m)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := Parse(wire)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Header.ANCount != 1 || len(parsed.Answers) != 1 {
		t.Fatalf("expected unimplemented record to be dropped, got ancount=%d answers=%d",
			parsed.Header.ANCount, len(parsed.Answers))
	}
}

func TestParse_UnknownTypeBecomesUnimplemented(t *testing.T) {
	m := Message{
		Header: Header{ID: 1, Flags: QRFlag, ANCount: 1},
		Answers: []ResourceRecord{
			{Name: "example.com.", Class: ClassIN, TTL: 60, Data: UnimplementedData{RType: 999, Raw: []byte{0xAA}}},
		},
	}
	// Serialize would drop it, so build the wire form by hand to
	// exercise Parse's unknown-type path directly.
	buf := m.Header.Marshal()
	nameBytes, _ := EncodeNameUncompressed("example.com")
	buf = append(buf, nameBytes...)
	buf = append(buf, 0x03, 0xE7) // type 999
	buf = append(buf, 0x00, 0x01) // class IN
	buf = append(buf, 0, 0, 0, 60) // ttl
	buf = append(buf, 0x00, 0x01) // rdlength 1
	buf = append(buf, 0xAA)

	parsed, err := Parse(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Answers) != 1 {
		t.Fatalf("answers = %+v", parsed.Answers)
	}
	data, ok := parsed.Answers[0].Data.(UnimplementedData)
	if !ok {
		t.Fatalf("data type = %T, want UnimplementedData", parsed.Answers[0].Data)
	}
	if data.RType != 999 {
		t.Fatalf("rtype = %d", data.RType)
	}
}

func TestParse_RejectsTruncatedHeader(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestParse_SOARoundTrip(t *testing.T) {
	m := Message{
		Header: Header{ID: 7, Flags: QRFlag, NSCount: 1},
		Authorities: []ResourceRecord{
			{Name: "example.com.", Class: ClassIN, TTL: 3600, Data: SOAData{
				MName: "ns1.example.com.", RName: "hostmaster.example.com.",
				Serial: 2024010100, Refresh: 7200, Retry: 3600, Expire: 1209600, Minimum: 300,
			}},
		},
	}
	wire, err := Serialize(m)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := Parse(wire)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	soa, ok := parsed.Authorities[0].Data.(SOAData)
	if !ok {
		t.Fatalf("data type = %T", parsed.Authorities[0].Data)
	}
	if soa.Serial != 2024010100 || soa.MName != "ns1.example.com." {
		t.Fatalf("soa = %+v", soa)
	}
}
