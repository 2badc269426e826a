package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/danmuck/manifestd/internal/protocol/tlv"
)

// Encoding selects how result values are laid out in a payload. Both peers of a
// session must use the same encoding.
type Encoding string

const (
	// EncodingSentinel joins values with StringSep, substitutes EmptyStr for
	// empty values and ends with ReqComplete. Values may not contain control bytes.
	EncodingSentinel Encoding = "sentinel"
	// EncodingTLV length-prefixes every value as a tlv string field and ends
	// with ReqComplete. Values may contain any byte.
	EncodingTLV Encoding = "tlv"
)

// ParseEncoding maps a configuration string to an Encoding. "" selects the default.
func ParseEncoding(raw string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EncodingSentinel:
		return EncodingSentinel, nil
	case EncodingTLV:
		return EncodingTLV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, raw)
	}
}

// EncodePayload renders values as one payload. It is never called for zero values:
// an empty response has no payload at all.
func EncodePayload(enc Encoding, values []string) ([]byte, error) {
	switch enc {
	case EncodingSentinel, "":
		return encodeSentinel(values)
	case EncodingTLV:
		out := tlv.EncodeStrings(values)
		return append(out, ReqComplete), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}

// DecodePayload reverses EncodePayload and checks the result against the count
// announced in the header.
func DecodePayload(enc Encoding, payload []byte, count int) ([]string, error) {
	if len(payload) == 0 || payload[len(payload)-1] != ReqComplete {
		return nil, fmt.Errorf("%w: %w", ErrProtocolViolation, ErrMissingComplete)
	}
	body := payload[:len(payload)-1]

	var (
		values []string
		err    error
	)
	switch enc {
	case EncodingSentinel, "":
		values, err = decodeSentinel(body)
	case EncodingTLV:
		values, err = tlv.DecodeStrings(body)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrProtocolViolation, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
	if err != nil {
		return nil, err
	}
	if len(values) != count {
		return nil, fmt.Errorf("%w: %w: header=%d payload=%d", ErrProtocolViolation, ErrCountMismatch, count, len(values))
	}
	return values, nil
}

func encodeSentinel(values []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(DeclaredSize(values) + 1)
	for i, v := range values {
		if ContainsControl(v) {
			return nil, fmt.Errorf("%w: value %d", ErrUnencodable, i)
		}
		if v == "" {
			buf.WriteByte(EmptyStr)
		} else {
			buf.WriteString(v)
		}
		buf.WriteByte(StringSep)
	}
	buf.WriteByte(ReqComplete)
	return buf.Bytes(), nil
}

// decodeSentinel splits the payload body (completion marker already removed).
// Every value is followed by StringSep, so the final split element is the empty
// artifact after the last separator and is dropped.
func decodeSentinel(body []byte) ([]string, error) {
	if len(body) == 0 || body[len(body)-1] != StringSep {
		return nil, fmt.Errorf("%w: payload does not end with a separator", ErrProtocolViolation)
	}
	parts := strings.Split(string(body[:len(body)-1]), string(StringSep))
	out := make([]string, len(parts))
	for i, p := range parts {
		if p == string(EmptyStr) {
			continue
		}
		if ContainsControl(p) {
			return nil, fmt.Errorf("%w: control byte inside value %d", ErrProtocolViolation, i)
		}
		out[i] = p
	}
	return out, nil
}
