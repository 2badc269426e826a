package query

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/danmuck/manifestd/internal/protocol"
	"github.com/danmuck/manifestd/internal/protocol/frame"
)

// readMessage reads one frame, bounding the wait by timeout when positive.
// Malformed or oversized frames are protocol violations; a clean close before
// any byte is io.EOF.
func readMessage(conn net.Conn, r io.Reader, limits frame.Limits, timeout time.Duration) ([]byte, error) {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	body, err := frame.ReadFrame(r, limits)
	if err != nil {
		if errors.Is(err, frame.ErrShortHeader) || errors.Is(err, frame.ErrShortBody) || errors.Is(err, frame.ErrPayloadTooLarge) {
			return nil, fmt.Errorf("%w: %w", protocol.ErrProtocolViolation, err)
		}
		return nil, err
	}
	return body, nil
}

func writeMessage(conn net.Conn, body []byte, limits frame.Limits, timeout time.Duration) error {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return frame.WriteFrame(conn, body, limits)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
