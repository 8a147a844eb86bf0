package forwarder

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/duskrelay/dnsforward/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUpstream is a minimal UDP responder used to exercise Worker
// without reaching the network.
func fakeUpstream(t *testing.T, respond func(query wire.Message) wire.Message) (addr string, stop func()) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 512)
		for {
			n, peer, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			q, err := wire.Parse(buf[:n])
			if err != nil {
				continue
			}
			resp := respond(q)
			out, err := wire.Serialize(resp)
			if err != nil {
				continue
			}
			_, _ = conn.WriteToUDP(out, peer)
			select {
			case done <- struct{}{}:
			default:
			}
		}
	}()

	return conn.LocalAddr().String(), func() { conn.Close() }
}

func TestWorker_SuccessfulQuery(t *testing.T) {
	addr, stop := fakeUpstream(t, func(q wire.Message) wire.Message {
		return wire.Message{
			Header:    wire.Header{ID: q.Header.ID, Flags: wire.QRFlag | wire.RAFlag, ANCount: 1},
			Questions: q.Questions,
			Answers: []wire.ResourceRecord{
				{Name: q.Questions[0].Name, Class: wire.ClassIN, TTL: 300, Data: wire.AData{Addr: [4]byte{93, 184, 216, 34}}},
			},
		}
	})
	defer stop()

	w := NewWorker(addr, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	answer := w.query(ctx, "example.com.", wire.TypeA)
	require.Equal(t, wire.RCodeNoError, answer.RCode)
	require.Len(t, answer.Answers, 1)
	a, ok := answer.Answers[0].Data.(wire.AData)
	require.True(t, ok)
	assert.Equal(t, [4]byte{93, 184, 216, 34}, a.Addr)
}

func TestWorker_TimeoutYieldsRefused(t *testing.T) {
	// Bind but never respond.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	defer conn.Close()

	w := NewWorker(conn.LocalAddr().String(), testLogger())
	w.Timeout = 50 * time.Millisecond

	answer := w.query(context.Background(), "example.com.", wire.TypeA)
	assert.Equal(t, wire.RCodeRefused, answer.RCode)
	assert.Empty(t, answer.Answers)
}

func TestWorker_UnreachableUpstreamYieldsRefused(t *testing.T) {
	w := NewWorker("127.0.0.1:1", testLogger())
	w.Timeout = 50 * time.Millisecond
	answer := w.query(context.Background(), "example.com.", wire.TypeA)
	assert.Equal(t, wire.RCodeRefused, answer.RCode)
}

func TestWorker_RunDeliversThroughReplyChannel(t *testing.T) {
	addr, stop := fakeUpstream(t, func(q wire.Message) wire.Message {
		return wire.Message{
			Header:    wire.Header{ID: q.Header.ID, Flags: wire.QRFlag, ANCount: 1},
			Questions: q.Questions,
			Answers: []wire.ResourceRecord{
				{Name: q.Questions[0].Name, Class: wire.ClassIN, TTL: 60, Data: wire.AData{Addr: [4]byte{1, 1, 1, 1}}},
			},
		}
	})
	defer stop()

	w := NewWorker(addr, testLogger())
	reqs := make(chan ForwardRequest, QueueCapacity)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, reqs)

	req := NewRequest("example.com.", wire.TypeA)
	reqs <- req

	select {
	case answer := <-req.Reply:
		require.Equal(t, wire.RCodeNoError, answer.RCode)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarder reply")
	}
}

func TestWorker_AbandonedReplyChannelDoesNotBlockOrPanic(t *testing.T) {
	addr, stop := fakeUpstream(t, func(q wire.Message) wire.Message {
		return wire.Message{Header: wire.Header{ID: q.Header.ID, Flags: wire.QRFlag}, Questions: q.Questions}
	})
	defer stop()

	w := NewWorker(addr, testLogger())
	req := NewRequest("example.com.", wire.TypeA)
	// Nobody ever reads req.Reply — handle must not block forever.
	done := make(chan struct{})
	go func() {
		w.handle(context.Background(), req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handle blocked on an abandoned reply channel")
	}
}
