// Package udp implements the DNS-over-UDP listening transport.
//
// Modeled on the teacher's multi-socket, SO_REUSEPORT UDP server, but
// trimmed to the shape this forwarder's concurrency model calls for:
// one receive loop and a fixed worker pool feeding a single Dispatcher
// over plain Go channels, rather than per-CPU sockets and a
// handler/rate-limiter stack this forwarder has no use for.
package udp

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/duskrelay/dnsforward/internal/pool"
)

// MaxDatagramSize is the largest DNS-over-UDP datagram this transport
// will read or write (RFC 1035 §4.2.1 historical default; the spec
// this forwarder implements caps messages at 512 bytes).
const MaxDatagramSize = 512

// Workers is the number of goroutines draining the inbound packet
// channel and calling into the dispatcher concurrently.
const Workers = 64

var bufferPool = pool.New(func() *[]byte {
	buf := make([]byte, MaxDatagramSize)
	return &buf
})

// Dispatcher is the subset of forwarder.Dispatcher this transport
// depends on, named as an interface so it can be faked in tests.
type Dispatcher interface {
	Dispatch(ctx context.Context, reqBytes []byte) ([]byte, error)
}

type packet struct {
	bufPtr *[]byte
	n      int
	peer   *net.UDPAddr
}

// Transport listens for DNS queries over UDP and hands each datagram
// to Dispatch, writing back whatever response bytes it returns.
type Transport struct {
	Dispatch Dispatcher
	Log      *slog.Logger

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// ListenAndServe binds addr (e.g. "0.0.0.0:3553") with SO_REUSEPORT
// and serves until ctx is cancelled.
func (t *Transport) ListenAndServe(ctx context.Context, addr string) error {
	conn, err := listenReusePort(addr)
	if err != nil {
		return err
	}
	t.conn = conn

	packets := make(chan packet, Workers*2)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.recvLoop(ctx, packets)
	}()

	for range Workers {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.workerLoop(ctx, packets)
		}()
	}

	<-ctx.Done()
	return t.stop(5 * time.Second)
}

func (t *Transport) recvLoop(ctx context.Context, out chan<- packet) {
	for {
		bufPtr := bufferPool.Get()
		n, peer, err := t.conn.ReadFromUDP(*bufPtr)
		if err != nil {
			bufferPool.Put(bufPtr)
			if ctx.Err() != nil {
				return
			}
			t.Log.Debug("udp transport read error", "err", err)
			return
		}
		select {
		case out <- packet{bufPtr, n, peer}:
		default:
			// Worker pool saturated; drop rather than block the receive path.
			bufferPool.Put(bufPtr)
			t.Log.Warn("udp transport dropped datagram, workers saturated")
		}
	}
}

func (t *Transport) workerLoop(ctx context.Context, in <-chan packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-in:
			if !ok {
				return
			}
			t.handle(ctx, p)
		}
	}
}

func (t *Transport) handle(ctx context.Context, p packet) {
	defer bufferPool.Put(p.bufPtr)
	qid := uuid.New().String()[:8]
	payload := make([]byte, p.n)
	copy(payload, (*p.bufPtr)[:p.n])

	resp, err := t.Dispatch.Dispatch(ctx, payload)
	if err != nil {
		t.Log.Debug("udp transport dropping unsalvageable datagram", "qid", qid, "peer", p.peer, "err", err)
		return
	}
	if _, err := t.conn.WriteToUDP(resp, p.peer); err != nil {
		t.Log.Debug("udp transport write failed", "qid", qid, "peer", p.peer, "err", err)
	}
}

func (t *Transport) stop(timeout time.Duration) error {
	if t.conn != nil {
		_ = t.conn.Close()
	}
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return nil
	}
}

func listenReusePort(addr string) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp", udpAddr.String())
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}
