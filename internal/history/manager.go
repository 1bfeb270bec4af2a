package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	// SQLite driver referenced only through the connection string.
	_ "github.com/mattn/go-sqlite3"

	"carelink/pkg/interfaces"
	"carelink/pkg/types"
)

// maxRows bounds the on-disk history; Record prunes beyond it.
const maxRows = 500

// writeRetryDelay is the pause before the single retry of a failed write.
const writeRetryDelay = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	priority   TEXT NOT NULL,
	data       TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at DESC);
`

// Manager implements interfaces.HistoryStore on a local SQLite cache
// ARCHITECTURAL DISCOVERY: Single-writer goroutine prevents SQLite write
// contention; reads stay concurrent on the pooled connections
type Manager struct {
	db           *sql.DB
	writeTimeout time.Duration
	retryDelay   time.Duration
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // Protect closed status
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens (and if needed creates) the history database.
func NewManager(path string, timeout time.Duration) (*Manager, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(timeout)

	// Schema applied at open: a one-table local cache carries no
	// versioned migration surface.
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	m := &Manager{
		db:           db,
		writeTimeout: timeout,
		retryDelay:   writeRetryDelay,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.writeLoop()

	return m, nil
}

func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			// Transient sqlite failures (lock contention) get exactly one
			// retry after a pause
			err := op.operation(m.db)
			if err != nil {
				log.Printf("History write failed, retrying: %v", err)
				time.Sleep(m.retryDelay)
				err = op.operation(m.db)
				if err != nil {
					log.Printf("History write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-m.shutdown:
			log.Println("History write loop shutting down")
			return
		}
	}
}

func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return interfaces.ErrHistoryClosed
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(m.writeTimeout):
		return fmt.Errorf("history write timeout")
	case <-m.shutdown:
		return interfaces.ErrHistoryClosed
	}
}

// Record appends one notification and prunes rows beyond the cap.
func (m *Manager) Record(ctx context.Context, n *types.Notification) error {
	if n == nil {
		return nil
	}
	return m.executeWrite(func(db *sql.DB) error {
		dataJSON, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}

		query := `
			INSERT OR REPLACE INTO notifications (id, type, title, message, priority, data, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := db.ExecContext(ctx, query,
			n.ID, n.Type, n.Title, n.Message, n.Priority, string(dataJSON), n.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}

		prune := `
			DELETE FROM notifications WHERE id NOT IN (
				SELECT id FROM notifications ORDER BY created_at DESC LIMIT ?
			)
		`
		if _, err := db.ExecContext(ctx, prune, maxRows); err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}

		return nil
	})
}

// Recent returns up to limit notifications, most recent first.
func (m *Manager) Recent(ctx context.Context, limit int) ([]*types.Notification, error) {
	if limit <= 0 {
		limit = maxRows
	}

	query := `
		SELECT id, type, title, message, priority, data, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := m.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*types.Notification

	for rows.Next() {
		var n types.Notification
		var dataJSON sql.NullString

		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Priority, &dataJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}

		if dataJSON.Valid && dataJSON.String != "" && dataJSON.String != "null" {
			if err := json.Unmarshal([]byte(dataJSON.String), &n.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}

		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}

// HealthCheck validates database connectivity.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("history ping failed: %w", err)
	}
	var count int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications").Scan(&count); err != nil {
		return fmt.Errorf("history read test failed: %w", err)
	}
	return nil
}

// Close shuts the manager down, waiting for in-flight writes.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil // Already closed
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}
