// Package wire implements the DNS message wire format: RFC 1035 name
// compression, header and question encoding, and the resource-record
// data variants this forwarder understands (A, NS, CNAME, SOA, PTR, MX,
// TXT, AAAA, plus an opaque passthrough for everything else).
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification
//   - RFC 1034: Domain Names - Concepts and Facilities
//   - RFC 3596: DNS Extensions to Support IPv6 (AAAA records)
//
// Error Handling:
//
// All errors are wrapped with context using fmt.Errorf("...: %w", err).
// This preserves error chains while adding operational context.
package wire

import "errors"

// ErrMalformed is a sentinel for DNS wire-format violations: truncated
// fields, oversized labels, compression loops, and the like. Wrap it
// with fmt.Errorf("context: %w", ErrMalformed) to add detail.
var ErrMalformed = errors.New("dns wire error")
