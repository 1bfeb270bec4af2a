package types

import (
	"testing"
	"time"
)

func TestNotification_Validate(t *testing.T) {
	valid := &Notification{
		ID:        NewNotificationID(),
		Type:      NotificationAppointment,
		Title:     "New Appointment",
		Message:   "You have a new appointment",
		Priority:  PriorityMedium,
		CreatedAt: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid notification, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(n *Notification)
		wantErr error
	}{
		{"missing id", func(n *Notification) { n.ID = "" }, ErrMissingNotificationID},
		{"bad type", func(n *Notification) { n.Type = "reminder" }, ErrInvalidNotificationType},
		{"missing title", func(n *Notification) { n.Title = "" }, ErrMissingTitle},
		{"bad priority", func(n *Notification) { n.Priority = "urgent" }, ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := *valid
			tt.mutate(&n)
			if err := n.Validate(); err != tt.wantErr {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIsValidNotificationType(t *testing.T) {
	for _, tag := range []string{
		NotificationAppointment, NotificationVideoCall, NotificationMessage,
		NotificationRegistration, NotificationEmergency, NotificationAvailability,
		NotificationPrescription, NotificationTestResult, NotificationHealthTip,
		NotificationSystem, NotificationAdminAlert, NotificationBooking,
		NotificationCancellation, NotificationOther,
	} {
		if !IsValidNotificationType(tag) {
			t.Errorf("Expected %q to be a valid type", tag)
		}
	}
	if IsValidNotificationType("alert") {
		t.Error("Expected 'alert' to be rejected")
	}
	if IsValidNotificationType("") {
		t.Error("Expected empty type to be rejected")
	}
}

// TestNormalizePriority verifies the wire-level "normal" alias maps to
// medium, and unknown values degrade to medium rather than failing.
func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{PriorityLow, PriorityLow},
		{PriorityMedium, PriorityMedium},
		{PriorityHigh, PriorityHigh},
		{"normal", PriorityMedium},
		{"", PriorityMedium},
		{"critical", PriorityMedium},
	}
	for _, tt := range tests {
		if got := NormalizePriority(tt.in); got != tt.want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RolePatient, RoleDoctor, RoleAdmin} {
		if !IsValidRole(role) {
			t.Errorf("Expected %q to be a valid role", role)
		}
	}
	if IsValidRole("nurse") {
		t.Error("Expected 'nurse' to be rejected")
	}
}

func TestIsValidUserID(t *testing.T) {
	if !IsValidUserID("user_123-abc") {
		t.Error("Expected alphanumeric id with underscore/hyphen to be valid")
	}
	if IsValidUserID("") {
		t.Error("Expected empty id to be rejected")
	}
	if IsValidUserID("user with spaces") {
		t.Error("Expected id with spaces to be rejected")
	}
}

// TestNewNotificationID verifies ids stay unique under rapid generation.
func TestNewNotificationID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewNotificationID()
		if seen[id] {
			t.Fatalf("Duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
