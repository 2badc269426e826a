package query

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/danmuck/manifestd/internal/protocol"
	"github.com/danmuck/manifestd/internal/tree"
)

var ErrClientClosed = errors.New("query: client closed")

// Client runs one session against a Server. It is not safe for concurrent use:
// requests are strictly sequential.
type Client struct {
	conn  net.Conn
	r     *bufio.Reader
	cfg   ClientConfig
	state State
	err   error
}

// Dial connects to addr and returns a client in the Idle state.
func Dial(ctx context.Context, addr string, cfg ClientConfig) (*Client, error) {
	cfg = cfg.WithDefaults()
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", strings.TrimSpace(addr))
	if err != nil {
		return nil, err
	}
	return NewClient(conn, cfg), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, cfg ClientConfig) *Client {
	return &Client{
		conn:  conn,
		r:     bufio.NewReader(conn),
		cfg:   cfg.WithDefaults(),
		state: StateIdle,
	}
}

func (c *Client) State() State {
	return c.state
}

// Key returns the values stored under key in the key/value section.
func (c *Client) Key(ctx context.Context, key string) ([]string, error) {
	return c.Query(ctx, tree.KeyPath(key))
}

// Query sends nodepath and returns the matching values in document order. An
// empty slice means no node matched. A malformed nodepath yields an error wrapping
// protocol.ErrInvalidRequest and leaves the session usable; any other error is
// fatal and closes the connection.
func (c *Client) Query(ctx context.Context, nodepath string) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.state != StateIdle {
		return nil, fmt.Errorf("%w: request while %s", protocol.ErrProtocolViolation, c.state)
	}
	if nodepath == "" || protocol.ContainsControl(nodepath) {
		return nil, fmt.Errorf("%w: %q", protocol.ErrInvalidRequest, nodepath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	values, err := c.roundTrip(nodepath, timeout)
	if err != nil && !errors.Is(err, protocol.ErrInvalidRequest) {
		c.fail(err)
		return nil, err
	}
	return values, err
}

func (c *Client) roundTrip(nodepath string, timeout time.Duration) ([]string, error) {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	remaining := func() time.Duration {
		if deadline.IsZero() {
			return 0
		}
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Nanosecond
	}

	if err := writeMessage(c.conn, []byte(nodepath), c.cfg.Limits, remaining()); err != nil {
		return nil, err
	}
	c.state = StateResolving

	raw, err := c.read(remaining())
	if err != nil {
		return nil, err
	}
	header, err := protocol.ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if header.Invalid() {
		c.state = StateIdle
		return nil, fmt.Errorf("%w: %q", protocol.ErrInvalidRequest, nodepath)
	}
	if header.Count == 0 {
		c.state = StateIdle
		return []string{}, nil
	}

	c.state = StateAwaitingAck
	if err := writeMessage(c.conn, []byte{protocol.RecvParamsRecvd}, c.cfg.Limits, remaining()); err != nil {
		return nil, err
	}
	c.state = StateStreaming
	payload, err := c.read(remaining())
	if err != nil {
		return nil, err
	}
	values, err := protocol.DecodePayload(c.cfg.Encoding, payload, header.Count)
	if err != nil {
		return nil, err
	}
	c.state = StateIdle
	return values, nil
}

func (c *Client) read(timeout time.Duration) ([]byte, error) {
	body, err := readMessage(c.conn, c.r, c.cfg.Limits, timeout)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: connection closed while %s", protocol.ErrProtocolViolation, c.state)
	}
	return body, err
}

func (c *Client) fail(err error) {
	c.err = err
	c.state = StateClosed
	_ = c.conn.Close()
}

// Close sends TermLink when the session is idle and closes the connection.
func (c *Client) Close() error {
	if c.state == StateClosed {
		return nil
	}
	var err error
	if c.state == StateIdle && c.err == nil {
		err = writeMessage(c.conn, []byte{protocol.TermLink}, c.cfg.Limits, c.cfg.DialTimeout)
	}
	c.state = StateClosed
	if c.err == nil {
		c.err = ErrClientClosed
	}
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
