package query

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/danmuck/manifestd/internal/observability"
	"github.com/danmuck/manifestd/internal/protocol"
	"github.com/danmuck/manifestd/internal/protocol/frame"
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/rs/zerolog"
)

type serverSession struct {
	conn     net.Conn
	r        *bufio.Reader
	trees    *tree.Holder
	cfg      Config
	log      zerolog.Logger
	state    State
	requests int
}

func newSession(conn net.Conn, trees *tree.Holder, cfg Config, log zerolog.Logger) *serverSession {
	return &serverSession{
		conn:  conn,
		r:     bufio.NewReader(conn),
		trees: trees,
		cfg:   cfg,
		log:   log,
		state: StateIdle,
	}
}

// run drives the session until the client terminates it, the connection drops
// or a violation occurs. It returns the outcome label and the fatal error, if any.
func (s *serverSession) run() (string, error) {
	defer func() { s.state = StateClosed }()
	for {
		body, err := readMessage(s.conn, s.r, s.cfg.Limits, s.cfg.ReadTimeout)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return observability.OutcomeDropped, nil
			}
			return classify(err), err
		}
		if protocol.IsSignal(body, protocol.TermLink) {
			return observability.OutcomeTerminated, nil
		}
		if len(body) == 1 && protocol.IsControl(body[0]) {
			err := fmt.Errorf("%w: control byte 0x%02x while %s", protocol.ErrProtocolViolation, body[0], s.state)
			return observability.OutcomeViolation, err
		}
		s.requests++
		if err := s.respond(string(body)); err != nil {
			return classify(err), err
		}
		s.state = StateIdle
	}
}

// respond answers one nodepath request and leaves the session ready for the next.
func (s *serverSession) respond(nodepath string) error {
	start := time.Now()
	s.state = StateResolving

	store := s.trees.Load()
	if store == nil {
		observability.RecordQuery(observability.ResultError, 0, time.Since(start))
		return ErrNoTree
	}
	values, err := store.Values(nodepath)
	if err != nil {
		if !errors.Is(err, tree.ErrMalformedPath) {
			observability.RecordQuery(observability.ResultError, 0, time.Since(start))
			return err
		}
		s.log.Debug().Str("nodepath", nodepath).Err(err).Msg("query.session invalid request")
		observability.RecordQuery(observability.ResultInvalid, 0, time.Since(start))
		return s.write(protocol.InvalidRequestHeader().Bytes())
	}

	header := protocol.HeaderFor(values)
	if header.Count == 0 {
		observability.RecordQuery(observability.ResultMiss, 0, time.Since(start))
		return s.write(header.Bytes())
	}
	payload, err := protocol.EncodePayload(s.cfg.Encoding, values)
	if err != nil {
		observability.RecordQuery(observability.ResultError, 0, time.Since(start))
		return fmt.Errorf("nodepath %q: %w", nodepath, err)
	}
	if !s.cfg.Limits.Fits(len(payload)) {
		observability.RecordQuery(observability.ResultError, 0, time.Since(start))
		return fmt.Errorf("%w: nodepath %q encodes to %d bytes, limit %d: %w",
			ErrResponseTooLarge, nodepath, len(payload), s.cfg.Limits.MaxPayloadBytes, frame.ErrPayloadTooLarge)
	}
	if err := s.write(header.Bytes()); err != nil {
		return err
	}

	s.state = StateAwaitingAck
	ack, err := readMessage(s.conn, s.r, s.cfg.Limits, s.cfg.AckTimeout)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: no ack within %s: %w", protocol.ErrProtocolViolation, s.cfg.AckTimeout, err)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: connection closed while %s", protocol.ErrProtocolViolation, s.state)
		}
		return err
	}
	if !protocol.IsSignal(ack, protocol.RecvParamsRecvd) {
		return fmt.Errorf("%w: expected ack while %s, got %d bytes", protocol.ErrProtocolViolation, s.state, len(ack))
	}

	s.state = StateStreaming
	if err := s.write(payload); err != nil {
		return err
	}
	observability.RecordQuery(observability.ResultHit, header.Count, time.Since(start))
	s.log.Debug().
		Str("nodepath", nodepath).
		Int("count", header.Count).
		Int("size", header.Size).
		Dur("elapsed", time.Since(start)).
		Msg("query.session response sent")
	return nil
}

func (s *serverSession) write(body []byte) error {
	return writeMessage(s.conn, body, s.cfg.Limits, s.cfg.WriteTimeout)
}

func classify(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeTerminated
	case errors.Is(err, protocol.ErrProtocolViolation), errors.Is(err, protocol.ErrUnencodable),
		errors.Is(err, ErrResponseTooLarge):
		return observability.OutcomeViolation
	default:
		return observability.OutcomeIOError
	}
}
