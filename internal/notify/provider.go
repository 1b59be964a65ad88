package notify

import (
	"context"
	"encoding/json"

	"github.com/voltgrid/billnotify/internal/transport"
)

// SenderAddress is the fixed from-address on every outbound notice.
const SenderAddress = "paymentprocessing@aep.com"

// Message is one outbound notification. Constructed per send, never
// persisted.
type Message struct {
	From        string   `json:"from"`
	To          []string `json:"to"`
	MessageBody string   `json:"messageBody"`
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "http", "smtp").
	Name() string
	// Send delivers the message. A well-formed rejection by the backend is
	// reported through the Outcome; the error return is reserved for
	// transport-level failures.
	Send(ctx context.Context, msg Message) (transport.Outcome[json.RawMessage], error)
}
