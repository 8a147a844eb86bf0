package forwarder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duskrelay/dnsforward/internal/cache"
	"github.com/duskrelay/dnsforward/internal/wire"
)

// errUnsalvageable is returned when a datagram is too short to even
// recover a transaction id for a FORMERR reply.
var errUnsalvageable = fmt.Errorf("%w: datagram too short to extract a transaction id", wire.ErrMalformed)

// Dispatcher sits between the listening transports and the pool of
// ForwarderWorkers. It owns the positive-answer cache exclusively —
// nothing else touches it — so Dispatch itself needs no locking
// around cache access even though multiple transports may call it
// concurrently (see Cache's own locking for that case).
type Dispatcher struct {
	Cache   *cache.Cache
	Forward chan<- ForwardRequest
	Log     *slog.Logger
}

// New returns a Dispatcher that hands cache misses to reqs.
func New(c *cache.Cache, reqs chan<- ForwardRequest, log *slog.Logger) *Dispatcher {
	return &Dispatcher{Cache: c, Forward: reqs, Log: log}
}

// Dispatch parses one client datagram and returns the wire bytes of
// the response to send back. A non-nil error means the request was
// malformed in a way that itself prevents forming any reply (not even
// the 2-byte transaction id could be read); otherwise Dispatch always returns
// response bytes, carrying whatever rcode the situation calls for.
func (d *Dispatcher) Dispatch(ctx context.Context, reqBytes []byte) ([]byte, error) {
	req, err := wire.Parse(reqBytes)
	if err != nil {
		return formErrResponse(reqBytes)
	}
	if req.Header.QDCount != 1 || len(req.Questions) != 1 {
		d.Log.Debug("rejecting query with qdcount != 1", "qdcount", req.Header.QDCount)
		return composeResponse(req.Header, nil, wire.RCodeServFail, nil, nil, nil), nil
	}

	q := req.Questions[0]

	if !q.Type.Known() {
		d.Log.Debug("rejecting unsupported qtype", "name", q.Name, "qtype", q.Type)
		return composeResponse(req.Header, []wire.Question{q}, wire.RCodeNotImp, nil, nil, nil), nil
	}

	if q.Type == wire.TypeA {
		if addr, ttl, ok := d.Cache.Get(q.Name); ok {
			answer := wire.ResourceRecord{Name: q.Name, Class: wire.ClassIN, TTL: ttl, Data: wire.AData{Addr: addr}}
			return composeResponse(req.Header, []wire.Question{q}, wire.RCodeNoError, []wire.ResourceRecord{answer}, nil, nil), nil
		}
	}

	fwdReq := NewRequest(q.Name, q.Type)
	select {
	case d.Forward <- fwdReq:
	case <-ctx.Done():
		return composeResponse(req.Header, []wire.Question{q}, wire.RCodeRefused, nil, nil, nil), nil
	}

	answer, err := AwaitReply(ctx, fwdReq)
	if err != nil {
		d.Log.Debug("dispatcher abandoned query awaiting forwarder reply", "name", q.Name, "err", err)
		return composeResponse(req.Header, []wire.Question{q}, wire.RCodeRefused, nil, nil, nil), nil
	}

	if answer.RCode == wire.RCodeNoError && q.Type == wire.TypeA && len(answer.Answers) > 0 {
		if a, ok := answer.Answers[0].Data.(wire.AData); ok {
			d.Cache.Insert(q.Name, a.Addr, answer.Answers[0].TTL)
		}
	}

	return composeResponse(req.Header, []wire.Question{q}, answer.RCode, answer.Answers, answer.Nameservers, answer.Additional), nil
}

// composeResponse builds the response message per the response
// composition rules: id/opcode/rd carried over from the request, qr=1,
// aa=1, tc=0, ra=1, ad=0, cd=0, rcode as given, unimplemented records
// filtered by Serialize.
func composeResponse(reqHeader wire.Header, questions []wire.Question, rcode wire.RCode, answers, ns, ar []wire.ResourceRecord) []byte {
	opcodeBits := reqHeader.Flags & wire.OpcodeMask
	rdBit := reqHeader.Flags & wire.RDFlag

	flags := wire.QRFlag | opcodeBits | wire.AAFlag | rdBit | wire.RAFlag | uint16(rcode)

	m := wire.Message{
		Header: wire.Header{
			ID:    reqHeader.ID,
			Flags: flags,
		},
		Questions:   questions,
		Answers:     answers,
		Authorities: ns,
		Additionals: ar,
	}
	out, err := wire.Serialize(m)
	if err != nil {
		// Serialization of a response we built ourselves should never
		// fail; if it does, fall back to a bare FORMERR header so the
		// client at least gets a well-formed reply.
		return wire.Header{ID: reqHeader.ID, Flags: wire.QRFlag | uint16(wire.RCodeFormErr)}.Marshal()
	}
	return out
}

func formErrResponse(reqBytes []byte) ([]byte, error) {
	// The header is the one part of a message simple enough to
	// salvage even when the rest failed to parse; if we can't even
	// read 2 bytes for the id, there is nothing left to reply with.
	if len(reqBytes) < 2 {
		return nil, errUnsalvageable
	}
	id := uint16(reqBytes[0])<<8 | uint16(reqBytes[1])
	h := wire.Header{ID: id, Flags: wire.QRFlag | uint16(wire.RCodeFormErr)}
	return h.Marshal(), nil
}
