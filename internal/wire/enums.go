package wire

// DNS header flags and masks (RFC 1035 Section 4.1.1).
//
// The DNS header contains a 16-bit flags field with the following layout:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA| Z|AD|CD|   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	 15 14 13 12 11 10  9  8  7  6  5  4  3  2  1  0
const (
	QRFlag     uint16 = 0x8000
	OpcodeMask uint16 = 0x7800
	AAFlag     uint16 = 0x0400
	TCFlag     uint16 = 0x0200
	RDFlag     uint16 = 0x0100
	RAFlag     uint16 = 0x0080
	ZFlag      uint16 = 0x0040
	ADFlag     uint16 = 0x0020
	CDFlag     uint16 = 0x0010
	RCodeMask  uint16 = 0x000F
)

// RecordType represents a DNS resource record type (RFC 1035, RFC 3596).
// Records of a type outside the recognized set parse as UnimplementedData.
type RecordType uint16

const (
	TypeA     RecordType = 1
	TypeNS    RecordType = 2
	TypeCNAME RecordType = 5
	TypeSOA   RecordType = 6
	TypePTR   RecordType = 12
	TypeMX    RecordType = 15
	TypeTXT   RecordType = 16
	TypeAAAA  RecordType = 28
	TypeHTTPS RecordType = 65
	TypeOPT   RecordType = 41 // EDNS pseudo-record; never emitted, filtered on sight.
)

// Known reports whether t is one of the record types this codec fully
// understands the RDATA of. Anything else (including OPT and HTTPS)
// parses as an opaque UnimplementedData record and is never re-emitted in an
// outbound answer.
func (t RecordType) Known() bool {
	switch t {
	case TypeA, TypeNS, TypeCNAME, TypeSOA, TypePTR, TypeMX, TypeTXT, TypeAAAA:
		return true
	default:
		return false
	}
}

// RecordClass is the DNS record class. Only IN is meaningful here.
type RecordClass uint16

const (
	ClassIN RecordClass = 1
)

// RCode is the 4-bit response status carried in the DNS header.
type RCode uint16

const (
	RCodeNoError  RCode = 0
	RCodeFormErr  RCode = 1
	RCodeServFail RCode = 2
	RCodeNXDomain RCode = 3
	RCodeNotImp   RCode = 4
	RCodeRefused  RCode = 5
)

// RCodeFromFlags extracts the response code from the header flags field.
func RCodeFromFlags(flags uint16) RCode {
	return RCode(flags & RCodeMask)
}

// Opcode extracts the 4-bit opcode from the flags field.
func Opcode(flags uint16) uint16 {
	return (flags & OpcodeMask) >> 11
}

// IsResponse reports whether the QR bit is set.
func IsResponse(flags uint16) bool {
	return flags&QRFlag != 0
}
