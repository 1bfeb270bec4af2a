package presence

import (
	"testing"

	"carelink/pkg/types"
)

func TestRegistry_Replace(t *testing.T) {
	r := NewRegistry()

	r.Replace([]types.OnlineUser{
		{ID: "d1", Name: "Dr. A", Role: types.RoleDoctor},
		{ID: "p1", Name: "Pat B", Role: types.RolePatient, Status: "busy"},
		{ID: "", Name: "ghost"},
	})

	users := r.List()
	if len(users) != 2 {
		t.Fatalf("Expected 2 users (entry without id skipped), got %d", len(users))
	}

	stats := r.Stats()
	if stats["total_online"] != 2 || stats["doctors_online"] != 1 || stats["patients_online"] != 1 {
		t.Errorf("Unexpected stats: %v", stats)
	}
}

func TestRegistry_ReplaceDefaultsStatus(t *testing.T) {
	r := NewRegistry()
	r.Replace([]types.OnlineUser{{ID: "d1", Role: types.RoleDoctor}})

	if r.List()[0].Status != "online" {
		t.Errorf("Expected default status online, got %q", r.List()[0].Status)
	}
}

func TestRegistry_SetStatus(t *testing.T) {
	r := NewRegistry()
	r.Replace([]types.OnlineUser{{ID: "d1", Role: types.RoleDoctor}})

	r.SetStatus("d1", "in-consultation")
	if r.List()[0].Status != "in-consultation" {
		t.Errorf("Expected updated status, got %q", r.List()[0].Status)
	}

	// Unknown user is a no-op
	r.SetStatus("missing", "away")
	if len(r.List()) != 1 {
		t.Error("SetStatus on unknown user changed the list")
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Replace([]types.OnlineUser{{ID: "d1", Role: types.RoleDoctor}})

	r.Clear()
	if len(r.List()) != 0 {
		t.Error("Expected empty registry after Clear")
	}
	if r.Stats()["total_online"] != 0 {
		t.Error("Expected zero stats after Clear")
	}
}
