// Package forwarder implements the upstream-facing half of the
// forwarding pipeline: a pool of ForwarderWorker goroutines that each
// own an ephemeral UDP socket for the lifetime of a single query, and
// the QueryDispatcher that sits between the listening transports and
// the workers.
package forwarder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/duskrelay/dnsforward/internal/wire"
)

// UpstreamTimeout is the default deadline (Worker.Timeout, as set by
// NewWorker) a ForwarderWorker waits for a single upstream reply before
// synthesizing a REFUSED answer.
const UpstreamTimeout = 2 * time.Second

// QueueCapacity bounds both the dispatcher->forwarder request queue
// and (conceptually) any similarly-shaped channel in the pipeline.
const QueueCapacity = 128

// ForwardRequest asks a ForwarderWorker to resolve name/rtype against
// the upstream resolver and deliver the result on Reply. Reply MUST
// have capacity 1 and is read from at most once.
type ForwardRequest struct {
	Name  string
	RType wire.RecordType
	Reply chan ForwardAnswer
}

// ForwardAnswer is what a ForwarderWorker delivers back through a
// ForwardRequest's reply channel.
type ForwardAnswer struct {
	RCode       wire.RCode
	Answers     []wire.ResourceRecord
	Nameservers []wire.ResourceRecord
	Additional  []wire.ResourceRecord
}

// refused is the synthesized answer for any upstream timeout or I/O
// failure (spec: deadline or I/O error -> RCODE REFUSED, no records).
var refused = ForwardAnswer{RCode: wire.RCodeRefused}

// Worker resolves ForwardRequests against a single fixed upstream
// address. Each request gets its own ephemeral UDP socket; workers
// share no state and may run arbitrarily concurrently.
type Worker struct {
	Upstream string // host:port of the upstream resolver, e.g. "9.9.9.9:53"
	Timeout  time.Duration
	Log      *slog.Logger
}

// NewWorker returns a Worker targeting upstream with the package
// default timeout.
func NewWorker(upstream string, log *slog.Logger) *Worker {
	return &Worker{Upstream: upstream, Timeout: UpstreamTimeout, Log: log}
}

// Run processes requests from reqs until it is closed. Intended to be
// run in its own goroutine; any number of Workers may run
// concurrently against the same upstream, each opening its own socket
// per request.
func (w *Worker) Run(ctx context.Context, reqs <-chan ForwardRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-reqs:
			if !ok {
				return
			}
			w.handle(ctx, req)
		}
	}
}

func (w *Worker) handle(ctx context.Context, req ForwardRequest) {
	answer := w.query(ctx, req.Name, req.RType)
	select {
	case req.Reply <- answer:
	default:
		// The reply channel's buffer is already full. A channel the
		// dispatcher abandoned does not land here: with capacity 1 the
		// send above succeeds without a receiver. Either way a
		// reply-send failure is not an error.
		w.Log.Debug("forwarder reply dropped, reply channel full", "name", req.Name)
	}
}

func (w *Worker) query(ctx context.Context, name string, rtype wire.RecordType) ForwardAnswer {
	conn, err := net.Dial("udp", w.Upstream)
	if err != nil {
		w.Log.Warn("forwarder dial failed", "upstream", w.Upstream, "err", err)
		return refused
	}
	defer conn.Close()

	id := uint16(rand.IntN(1 << 16))
	query := wire.Message{
		Header: wire.Header{
			ID:      id,
			Flags:   wire.RDFlag,
			QDCount: 1,
		},
		Questions: []wire.Question{
			{Name: name, Type: rtype, Class: wire.ClassIN},
		},
	}
	queryBytes, err := wire.Serialize(query)
	if err != nil {
		w.Log.Error("forwarder failed to serialize outbound query", "name", name, "err", err)
		return refused
	}

	deadline := time.Now().Add(w.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		w.Log.Warn("forwarder failed to set deadline", "err", err)
		return refused
	}

	if _, err := conn.Write(queryBytes); err != nil {
		w.Log.Warn("forwarder write failed", "upstream", w.Upstream, "err", err)
		return refused
	}

	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		w.Log.Debug("forwarder read failed or timed out", "upstream", w.Upstream, "name", name, "err", err)
		return refused
	}

	resp, err := wire.Parse(buf[:n])
	if err != nil {
		w.Log.Warn("forwarder received malformed upstream reply", "upstream", w.Upstream, "name", name, "err", err)
		return refused
	}

	return ForwardAnswer{
		RCode:       wire.RCodeFromFlags(resp.Header.Flags),
		Answers:     resp.Answers,
		Nameservers: resp.Authorities,
		Additional:  resp.Additionals,
	}
}

// NewRequest builds a ForwardRequest with a fresh capacity-1 reply
// channel for name/rtype.
func NewRequest(name string, rtype wire.RecordType) ForwardRequest {
	return ForwardRequest{Name: name, RType: rtype, Reply: make(chan ForwardAnswer, 1)}
}

// errReplyTimeout is returned by AwaitReply if ctx expires before the
// worker's answer arrives.
var errReplyTimeout = fmt.Errorf("forwarder: %w", context.DeadlineExceeded)

// AwaitReply blocks for req's single reply or until ctx is done,
// whichever comes first.
func AwaitReply(ctx context.Context, req ForwardRequest) (ForwardAnswer, error) {
	select {
	case answer := <-req.Reply:
		return answer, nil
	case <-ctx.Done():
		return ForwardAnswer{}, errReplyTimeout
	}
}
