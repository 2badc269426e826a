package protocol

import "errors"

var (
	// ErrProtocolViolation is fatal to a session: the peer sent something the
	// current state does not allow, or a message that does not parse.
	ErrProtocolViolation = errors.New("protocol: violation")
	// ErrInvalidRequest reports a malformed nodepath. The session stays usable.
	ErrInvalidRequest  = errors.New("protocol: invalid request")
	ErrUnencodable     = errors.New("protocol: value contains a control byte")
	ErrUnknownEncoding = errors.New("protocol: unknown value encoding")
	ErrMissingComplete = errors.New("protocol: payload missing completion marker")
	ErrCountMismatch   = errors.New("protocol: payload count does not match header")
	ErrMalformedHeader = errors.New("protocol: malformed result header")
)
