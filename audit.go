package tokenvault

import (
	"io"

	"github.com/MrEthical07/tokenvault/internal/audit"
)

// AuditEvent is one audit record emitted for a credential write or delete.
type AuditEvent = audit.Event

// AuditSink receives audit events from the client's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

// Audit event types.
const (
	AuditAccessTokenWrite  = audit.EventAccessTokenWrite
	AuditRefreshTokenWrite = audit.EventRefreshTokenWrite
	AuditTokensDelete      = audit.EventTokensDelete
)

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
