// Package query owns the nodepath query session state machines.
//
// Ownership boundary:
// - Server: accept loop, one goroutine per connection, per-session state
// - Client: request/ack/decode cycle mirroring the server
// - session timeouts and dial retry policy
//
// Session states: Idle -> Resolving -> AwaitingAck -> Streaming -> Idle, or
// Idle -> Closed on TERM_LINK. Any message that the current state does not
// allow closes the connection.
package query
