// Package protocol owns the port wire contract.
//
// Ownership boundary:
// - frame primitives (length-prefixed transport)
// - term primitives (external term format codec)
// - request/response envelope validation
package protocol
