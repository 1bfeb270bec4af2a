package store

import (
	"fmt"
	"testing"
	"time"

	"carelink/pkg/types"
)

func makeNotification(id string) *types.Notification {
	return &types.Notification{
		ID:        id,
		Type:      types.NotificationSystem,
		Title:     "Test",
		Message:   "test message",
		Priority:  types.PriorityMedium,
		CreatedAt: time.Now(),
	}
}

func TestStore_AddOrdering(t *testing.T) {
	s := New(DefaultCapacity)

	s.Add(makeNotification("a"))
	s.Add(makeNotification("b"))
	s.Add(makeNotification("c"))

	records := s.List()
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	// Most recent first
	if records[0].ID != "c" || records[1].ID != "b" || records[2].ID != "a" {
		t.Errorf("Expected order [c b a], got [%s %s %s]",
			records[0].ID, records[1].ID, records[2].ID)
	}
}

// TestStore_CapacityEviction verifies 25 rapid adds leave exactly the 20
// most recent records, oldest 5 evicted.
func TestStore_CapacityEviction(t *testing.T) {
	s := New(20)

	for i := 0; i < 25; i++ {
		s.Add(makeNotification(fmt.Sprintf("n%02d", i)))
	}

	if s.Count() != 20 {
		t.Fatalf("Expected store size 20, got %d", s.Count())
	}

	records := s.List()
	// Newest (n24) first, oldest surviving (n05) last
	if records[0].ID != "n24" {
		t.Errorf("Expected newest record n24 first, got %s", records[0].ID)
	}
	if records[19].ID != "n05" {
		t.Errorf("Expected oldest surviving record n05 last, got %s", records[19].ID)
	}
	for _, r := range records {
		if r.ID < "n05" {
			t.Errorf("Evicted record %s still present", r.ID)
		}
	}
}

func TestStore_RemoveNonExistent(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add(makeNotification("a"))
	s.Add(makeNotification("b"))

	s.Remove("missing")

	if s.Count() != 2 {
		t.Errorf("Expected size 2 after removing missing id, got %d", s.Count())
	}
	records := s.List()
	if records[0].ID != "b" || records[1].ID != "a" {
		t.Error("Order changed after removing missing id")
	}
}

func TestStore_Remove(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add(makeNotification("a"))
	s.Add(makeNotification("b"))
	s.Add(makeNotification("c"))

	s.Remove("b")

	records := s.List()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "c" || records[1].ID != "a" {
		t.Errorf("Expected [c a], got [%s %s]", records[0].ID, records[1].ID)
	}
}

func TestStore_ClearAll(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add(makeNotification("a"))
	s.Add(makeNotification("b"))

	s.ClearAll()

	if s.Count() != 0 {
		t.Errorf("Expected empty store, got %d records", s.Count())
	}
}

// TestStore_DuplicateID verifies duplicate ids are inserted as distinct
// entries (logged, not rejected, not deduplicated).
func TestStore_DuplicateID(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add(makeNotification("dup"))
	s.Add(makeNotification("dup"))

	if s.Count() != 2 {
		t.Errorf("Expected 2 entries for duplicate id, got %d", s.Count())
	}
}

func TestStore_OnAdd(t *testing.T) {
	s := New(DefaultCapacity)

	var seen []string
	unsubscribe := s.OnAdd(func(n *types.Notification) {
		seen = append(seen, n.ID)
	})

	s.Add(makeNotification("a"))
	s.Add(makeNotification("b"))
	unsubscribe()
	s.Add(makeNotification("c"))

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("Expected observer to see [a b], got %v", seen)
	}
}

func TestStore_ListIsCopy(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add(makeNotification("a"))

	records := s.List()
	records[0] = makeNotification("tampered")

	if s.List()[0].ID != "a" {
		t.Error("Mutating the listed slice affected the store")
	}
}

func TestStore_NilAdd(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add(nil)
	if s.Count() != 0 {
		t.Error("Expected nil add to be ignored")
	}
}
