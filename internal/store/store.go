package store

import (
	"log"
	"sync"

	"carelink/pkg/types"
)

// DefaultCapacity bounds the notification panel; inserting beyond it
// evicts the oldest record.
const DefaultCapacity = 20

// Store is the single source of truth for current notifications
// ARCHITECTURAL DISCOVERY: Pure bounded collection without routing or
// display logic; all mutation flows through Add, Remove, and ClearAll
type Store struct {
	mu             sync.RWMutex
	records        []*types.Notification // most recent first
	capacity       int
	observers      map[int]func(*types.Notification)
	nextObserverID int
}

// New creates a store with the given capacity; values <= 0 fall back to
// DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity:  capacity,
		observers: make(map[int]func(*types.Notification)),
	}
}

// Add prepends a record and truncates to capacity, oldest dropped first.
// There are no error conditions: a duplicate ID is a store-level anomaly
// that is logged and inserted as a distinct entry, never surfaced to users.
func (s *Store) Add(n *types.Notification) {
	if n == nil {
		return
	}

	s.mu.Lock()
	for _, existing := range s.records {
		if existing.ID == n.ID {
			log.Printf("Duplicate notification ID inserted: id=%s type=%s", n.ID, n.Type)
			break
		}
	}

	// FUNCTIONAL DISCOVERY: Prepend-then-truncate keeps the slice in
	// reverse-chronological order without sorting on read
	s.records = append([]*types.Notification{n}, s.records...)
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, fn := range observers {
		fn(n)
	}
}

// Remove deletes the record with the given ID if present; no-op otherwise.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.records {
		if n.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return
		}
	}
}

// ClearAll empties the store.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// List returns the current records, most recent first. The slice is a copy;
// records themselves are immutable after creation.
func (s *Store) List() []*types.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Notification, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns the number of stored records (used for the unread badge).
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// OnAdd registers an insertion observer and returns an unsubscribe func.
// Observers run synchronously after the record is stored, in no particular
// order, on the inserting goroutine.
func (s *Store) OnAdd(fn func(*types.Notification)) func() {
	s.mu.Lock()
	id := s.nextObserverID
	s.nextObserverID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// snapshotObservers copies the observer set; callers must hold s.mu.
func (s *Store) snapshotObservers() []func(*types.Notification) {
	observers := make([]func(*types.Notification), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	return observers
}
