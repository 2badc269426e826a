package protocol

// Control bytes. Values are shared with the original socket server so that
// sentinel-encoded payloads stay byte compatible.
const (
	// StringSep separates result values in a payload (server).
	StringSep byte = 0x00
	// ReqComplete ends the payload of one response (server).
	ReqComplete byte = 0x01
	// EmptyStr stands in for a result value that is the empty string (server).
	EmptyStr byte = 0x02
	// RecvParamsRecvd acknowledges the result header (client).
	RecvParamsRecvd byte = 0x03
	// TermLink ends the session (client).
	TermLink byte = 0x04
)

// IsControl reports whether b is one of the reserved control bytes.
func IsControl(b byte) bool {
	return b <= TermLink
}

// ContainsControl reports whether s contains a reserved control byte.
func ContainsControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if IsControl(s[i]) {
			return true
		}
	}
	return false
}

// IsSignal reports whether body is exactly the one-byte control message c.
func IsSignal(body []byte, c byte) bool {
	return len(body) == 1 && body[0] == c
}
