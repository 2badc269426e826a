package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderLen is the size of the big-endian body length that prefixes every frame.
const HeaderLen = 4

var (
	ErrShortHeader     = errors.New("frame: short length header")
	ErrShortBody       = errors.New("frame: short body")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 8 * 1024 * 1024,
	}
}

func (l Limits) WithDefaults() Limits {
	if l.MaxPayloadBytes == 0 {
		l.MaxPayloadBytes = DefaultLimits().MaxPayloadBytes
	}
	return l
}

// Fits reports whether a body of n bytes can be written as one frame.
func (l Limits) Fits(n int) bool {
	return n >= 0 && uint64(n) <= uint64(l.MaxPayloadBytes)
}

// ReadFrame reads one length-prefixed message body. A clean end of stream before
// any header byte is reported as io.EOF.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	body := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrShortBody
			}
			return nil, err
		}
	}
	return body, nil
}

// WriteFrame writes body as one length-prefixed message in a single write.
func WriteFrame(w io.Writer, body []byte, limits Limits) error {
	if !limits.Fits(len(body)) {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, HeaderLen+len(body))
	binary.BigEndian.PutUint32(buf[:HeaderLen], uint32(len(body)))
	copy(buf[HeaderLen:], body)
	_, err := w.Write(buf)
	return err
}
