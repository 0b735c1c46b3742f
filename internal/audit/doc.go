// Package audit implements async event dispatching for credential mutations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, user and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the token repository does.
//
// # What this package must NOT do
//
//   - Carry token values in events.
//   - Import tokenvault or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
