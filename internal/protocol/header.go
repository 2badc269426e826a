package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidRequestCount marks a result header answering a malformed nodepath.
const InvalidRequestCount = -1

// Header is the "<count>,<size>" message that precedes every response.
//
// Size is advisory: it is the declared byte length of the results string and
// is not used for framing. ReqComplete ends a payload.
type Header struct {
	Count int
	Size  int
}

// HeaderFor returns the header describing values.
func HeaderFor(values []string) Header {
	return Header{Count: len(values), Size: DeclaredSize(values)}
}

// InvalidRequestHeader is sent instead of a result header when the nodepath does
// not parse. No ack and no payload follow it.
func InvalidRequestHeader() Header {
	return Header{Count: InvalidRequestCount, Size: 0}
}

// Invalid reports whether h answers a malformed nodepath.
func (h Header) Invalid() bool {
	return h.Count == InvalidRequestCount
}

func (h Header) String() string {
	return strconv.Itoa(h.Count) + "," + strconv.Itoa(h.Size)
}

func (h Header) Bytes() []byte {
	return []byte(h.String())
}

// ParseHeader parses a "<count>,<size>" header. Any deviation from the grammar is
// a protocol violation.
func ParseHeader(b []byte) (Header, error) {
	raw := string(b)
	countRaw, sizeRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return Header{}, fmt.Errorf("%w: %w: %q", ErrProtocolViolation, ErrMalformedHeader, raw)
	}
	count, err := strconv.Atoi(countRaw)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w: count %q", ErrProtocolViolation, ErrMalformedHeader, countRaw)
	}
	size, err := strconv.Atoi(sizeRaw)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w: size %q", ErrProtocolViolation, ErrMalformedHeader, sizeRaw)
	}
	if count < InvalidRequestCount || size < 0 {
		return Header{}, fmt.Errorf("%w: %w: %q out of range", ErrProtocolViolation, ErrMalformedHeader, raw)
	}
	if count <= 0 && size != 0 {
		return Header{}, fmt.Errorf("%w: %w: %q declares size without values", ErrProtocolViolation, ErrMalformedHeader, raw)
	}
	return Header{Count: count, Size: size}, nil
}

// DeclaredSize returns the results-string size announced in the header: every raw
// value plus its separator. Sentinel substitution and the completion marker are
// not counted, so the value can differ from the payload length.
func DeclaredSize(values []string) int {
	size := 0
	for _, v := range values {
		size += len(v) + 1
	}
	return size
}
