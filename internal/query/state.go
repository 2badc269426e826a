package query

// State is the position of a session in the request/response cycle.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateAwaitingAck
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateAwaitingAck:
		return "awaiting_ack"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
