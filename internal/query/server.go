package query

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/observability"
	"github.com/danmuck/manifestd/internal/tree"
)

var (
	ErrNoTree       = errors.New("query: no manifest tree published")
	ErrServerClosed = errors.New("query: server closed")
	// ErrResponseTooLarge ends a session whose encoded response exceeds the frame
	// limit. No header is sent for such a response.
	ErrResponseTooLarge = errors.New("query: response exceeds frame limit")
)

// Server answers nodepath requests against the store currently published in its
// Holder. Sessions run one goroutine per connection and share nothing but the
// Holder.
type Server struct {
	cfg   Config
	trees *tree.Holder

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup

	seq    atomic.Uint64
	active atomic.Int64
}

func NewServer(trees *tree.Holder, cfg Config) *Server {
	observability.RegisterMetrics()
	return &Server{
		cfg:   cfg.WithDefaults(),
		trees: trees,
		conns: make(map[net.Conn]struct{}),
	}
}

// ActiveSessions returns the number of sessions currently open.
func (s *Server) ActiveSessions() int64 {
	return s.active.Load()
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or Close is called. It returns
// nil on shutdown after every session has ended.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.trees == nil || s.trees.Load() == nil {
		_ = ln.Close()
		return ErrNoTree
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	log := logging.For("query")
	log.Info().Str("addr", ln.Addr().String()).Msg("query.Server listening")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || s.isClosed() {
				s.wg.Wait()
				return nil
			}
			_ = s.Close()
			return err
		}
		if !s.track(conn) {
			continue
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			_ = s.ServeConn(conn)
		}()
	}
}

// Close stops accepting, closes every open session and waits for them to end.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return nil
	}
	s.closed = true
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// ServeConn runs one session on conn and closes it. The returned error is nil
// when the client ended the session or disconnected between requests.
func (s *Server) ServeConn(conn net.Conn) error {
	id := s.seq.Add(1)
	remote := conn.RemoteAddr().String()
	log := logging.For("query").With().Uint64("session", id).Str("remote", remote).Logger()

	active := s.active.Add(1)
	observability.SessionOpened()
	log.Info().Int64("active_sessions", active).Msg("query.session opened")

	sess := newSession(conn, s.trees, s.cfg, log)
	outcome, err := sess.run()
	_ = conn.Close()

	remaining := s.active.Add(-1)
	observability.SessionClosed(outcome)
	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Str("outcome", outcome).
		Str("state", sess.state.String()).
		Int("requests", sess.requests).
		Int64("active_sessions", remaining).
		Msg("query.session closed")
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = conn.Close()
		return false
	}
	if s.cfg.MaxSessions > 0 && len(s.conns) >= s.cfg.MaxSessions {
		_ = conn.Close()
		observability.SessionRejected()
		log := logging.For("query")
		log.Warn().
			Str("remote", conn.RemoteAddr().String()).
			Int("max_sessions", s.cfg.MaxSessions).
			Msg("query.Server session limit reached")
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
