package interfaces

import (
	"context"

	"carelink/pkg/types"
)

// HistoryStore persists routed notifications so the notification panel can
// be restored across restarts. Implementations must be safe for concurrent use.
type HistoryStore interface {
	// Record appends one notification to the history.
	Record(ctx context.Context, n *types.Notification) error

	// Recent returns up to limit notifications, most recent first.
	Recent(ctx context.Context, limit int) ([]*types.Notification, error)

	// Close flushes pending writes and releases the underlying storage.
	Close() error
}
