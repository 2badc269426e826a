package query

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/manifestd/internal/observability"
	"github.com/danmuck/manifestd/internal/protocol"
	"github.com/danmuck/manifestd/internal/protocol/frame"
	"github.com/danmuck/manifestd/internal/testutil/manifesttest"
	"github.com/danmuck/manifestd/internal/testutil/testlog"
	"github.com/danmuck/manifestd/internal/tree"
)

func startServer(t *testing.T, holder *tree.Holder, cfg Config) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(holder, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve returned: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// rawConn speaks frames directly so tests can misbehave on purpose.
type rawConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialRaw(t *testing.T, addr string) *rawConn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &rawConn{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *rawConn) send(body []byte) {
	c.t.Helper()
	if err := frame.WriteFrame(c.conn, body, frame.DefaultLimits()); err != nil {
		c.t.Fatalf("write frame: %v", err)
	}
}

func (c *rawConn) recv() ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return frame.ReadFrame(c.r, frame.DefaultLimits())
}

func (c *rawConn) mustRecv() string {
	c.t.Helper()
	body, err := c.recv()
	if err != nil {
		c.t.Fatalf("read frame: %v", err)
	}
	return string(body)
}

func TestServerWireExchange(t *testing.T) {
	testlog.Start(t)
	_, addr := startServer(t, manifesttest.Holder(t), DefaultConfig())
	c := dialRaw(t, addr)

	c.send([]byte("a/b"))
	if got := c.mustRecv(); got != "2,4" {
		t.Fatalf("unexpected header: %q", got)
	}
	c.send([]byte{protocol.RecvParamsRecvd})
	if got := c.mustRecv(); got != "x\x00x\x00\x01" {
		t.Fatalf("unexpected payload: %q", got)
	}

	c.send([]byte("z/y"))
	if got := c.mustRecv(); got != "0,0" {
		t.Fatalf("unexpected miss header: %q", got)
	}

	c.send([]byte("c/d"))
	if got := c.mustRecv(); got != "1,1" {
		t.Fatalf("unexpected header: %q", got)
	}
	c.send([]byte{protocol.RecvParamsRecvd})
	if got := c.mustRecv(); got != "\x02\x00\x01" {
		t.Fatalf("unexpected payload: %q", got)
	}

	c.send([]byte("a[b"))
	if got := c.mustRecv(); got != "-1,0" {
		t.Fatalf("unexpected invalid header: %q", got)
	}

	c.send([]byte{protocol.TermLink})
	if _, err := c.recv(); err == nil {
		t.Fatalf("expected server to close after term link")
	}
}

func TestServerClosesOnRequestInsteadOfAck(t *testing.T) {
	testlog.Start(t)
	srv, addr := startServer(t, manifesttest.Holder(t), DefaultConfig())
	c := dialRaw(t, addr)

	c.send([]byte("a/b"))
	if got := c.mustRecv(); got != "2,4" {
		t.Fatalf("unexpected header: %q", got)
	}
	c.send([]byte("c/d"))
	if body, err := c.recv(); err == nil {
		t.Fatalf("expected close, got frame %q", body)
	}
	waitFor(t, "session close", func() bool { return srv.ActiveSessions() == 0 })
}

func TestServerClosesOnAckWhileIdle(t *testing.T) {
	testlog.Start(t)
	_, addr := startServer(t, manifesttest.Holder(t), DefaultConfig())
	c := dialRaw(t, addr)

	c.send([]byte{protocol.RecvParamsRecvd})
	if body, err := c.recv(); err == nil {
		t.Fatalf("expected close, got frame %q", body)
	}
}

func TestServerAckTimeout(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.AckTimeout = 50 * time.Millisecond
	srv, addr := startServer(t, manifesttest.Holder(t), cfg)
	c := dialRaw(t, addr)

	c.send([]byte("a/b"))
	if got := c.mustRecv(); got != "2,4" {
		t.Fatalf("unexpected header: %q", got)
	}
	start := time.Now()
	if body, err := c.recv(); err == nil {
		t.Fatalf("expected close, got frame %q", body)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("server held the session past its ack timeout")
	}
	waitFor(t, "session close", func() bool { return srv.ActiveSessions() == 0 })
}

func TestServerRejectsUnencodableValue(t *testing.T) {
	testlog.Start(t)
	root := tree.NewNode("r", "")
	root.Add("v", "bad\x01value")
	s, err := tree.NewStore(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, addr := startServer(t, tree.NewHolder(s), DefaultConfig())
	c := dialRaw(t, addr)

	c.send([]byte("v"))
	if body, err := c.recv(); err == nil {
		t.Fatalf("expected close, got frame %q", body)
	}
}

func TestServerRejectsOversizedResponseBeforeHeader(t *testing.T) {
	testlog.Start(t)
	root := tree.NewNode("r", "")
	root.Add("v", strings.Repeat("x", 64))
	root.Add("w", "small")
	s, err := tree.NewStore(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Limits = frame.Limits{MaxPayloadBytes: 32}
	_, addr := startServer(t, tree.NewHolder(s), cfg)

	c := dialRaw(t, addr)
	c.send([]byte("w"))
	if got := c.mustRecv(); got != "1,6" {
		t.Fatalf("unexpected header: %q", got)
	}
	c.send([]byte{protocol.RecvParamsRecvd})
	if got := c.mustRecv(); got != "small\x00\x01" {
		t.Fatalf("unexpected payload: %q", got)
	}

	c.send([]byte("v"))
	if body, err := c.recv(); err == nil {
		t.Fatalf("expected close before any header, got frame %q", body)
	}
}

func TestOversizedResponseIsViolation(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrResponseTooLarge, frame.ErrPayloadTooLarge)
	if got := classify(err); got != observability.OutcomeViolation {
		t.Fatalf("unexpected outcome: %q", got)
	}
}

func TestServerSessionLimit(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	srv, addr := startServer(t, manifesttest.Holder(t), cfg)

	first, err := Dial(context.Background(), addr, DefaultClientConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	if _, err := first.Query(context.Background(), "a/b"); err != nil {
		t.Fatalf("first session query: %v", err)
	}

	second, err := Dial(context.Background(), addr, DefaultClientConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()
	if _, err := second.Query(context.Background(), "a/b"); err == nil {
		t.Fatalf("expected second session to be refused")
	}
	if got := srv.ActiveSessions(); got != 1 {
		t.Fatalf("unexpected active sessions: %d", got)
	}
}

func TestServerCloseEndsIdleSessions(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(manifesttest.Holder(t), DefaultConfig())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	c := dialRaw(t, ln.Addr().String())
	c.send([]byte("c/d"))
	if got := c.mustRecv(); got != "1,1" {
		t.Fatalf("unexpected header: %q", got)
	}
	c.send([]byte{protocol.RecvParamsRecvd})
	_ = c.mustRecv()

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return after close")
	}
	if _, err := c.recv(); err == nil {
		t.Fatalf("expected session closed by server shutdown")
	}
	if err := srv.Serve(context.Background(), ln); !errors.Is(err, ErrServerClosed) {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
}

func TestServeWithoutTree(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(tree.NewHolder(nil), DefaultConfig())
	if err := srv.Serve(context.Background(), ln); !errors.Is(err, ErrNoTree) {
		t.Fatalf("expected ErrNoTree, got %v", err)
	}
}

func TestServerSeesReloadedTree(t *testing.T) {
	testlog.Start(t)
	holder := manifesttest.Holder(t)
	_, addr := startServer(t, holder, DefaultConfig())
	client, err := Dial(context.Background(), addr, DefaultClientConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	root := tree.NewNode(manifesttest.RootTag, "")
	root.Add("a", "").Add("b", "reloaded")
	next, err := tree.NewStore(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	holder.Swap(next)

	got, err := client.Query(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0] != "reloaded" {
		t.Fatalf("unexpected values after reload: %q", got)
	}
}
