// Package protocol owns the nodepath query wire contract.
//
// Ownership boundary:
// - control bytes and the "count,size" result header
// - result payload encodings (sentinel, tlv)
// - frame/tlv primitives live in subpackages
//
// Session state machines that drive these primitives live in internal/query.
package protocol
