package interfaces

import (
	"context"

	"carelink/pkg/types"
)

// ConnectionStatus reports transport-level lifecycle changes to the handler.
type ConnectionStatus string

const (
	// StatusReconnecting: the transport lost the connection unexpectedly and
	// is retrying with its bounded backoff policy.
	StatusReconnecting ConnectionStatus = "reconnecting"
	// StatusReconnected: a retry succeeded and events are flowing again.
	StatusReconnected ConnectionStatus = "reconnected"
	// StatusServerClosed: the server closed the connection deliberately;
	// the transport will not retry.
	StatusServerClosed ConnectionStatus = "server-closed"
	// StatusFailed: retry attempts are exhausted; the connection is gone.
	StatusFailed ConnectionStatus = "failed"
)

// Transport is an established bidirectional connection to the notification server
// ARCHITECTURAL DISCOVERY: Pure abstraction without implementation details
// keeps the connection manager testable without a live websocket server
type Transport interface {
	// Emit sends a named event with a JSON-serializable payload (thread-safe).
	Emit(event string, payload interface{}) error

	// Close tears the connection down and stops all transport goroutines.
	// Safe to call more than once.
	Close() error
}

// EventHandler receives inbound traffic from a Transport. Calls are made
// from the transport's read goroutine, one at a time.
type EventHandler interface {
	HandleEvent(event types.Event)
	HandleStatus(status ConnectionStatus)
}

// DialFunc opens a Transport presenting the given identity as credentials.
// The context bounds the initial handshake only, not the connection lifetime.
type DialFunc func(ctx context.Context, identity types.Identity, handler EventHandler) (Transport, error)
