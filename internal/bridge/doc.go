// Package bridge owns command dispatch for the port.
//
// Ownership boundary:
// - request envelope to handler routing
//
// - argument decoding and handle resolution
//
// - error to reason term mapping
//
// - the serve loop and process lifecycle
//
// Handlers address objects through the registry only. Every request gets
// exactly one response, including requests that fail to decode or panic.
package bridge
