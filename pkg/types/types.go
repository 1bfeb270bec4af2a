package types

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ARCHITECTURAL DISCOVERY: Notification type tags defined as a fixed set
// so routing, validation, and display logic agree across the system
const (
	NotificationAppointment  = "appointment"
	NotificationVideoCall    = "video-call"
	NotificationMessage      = "message"
	NotificationRegistration = "registration"
	NotificationEmergency    = "emergency"
	NotificationAvailability = "availability"
	NotificationPrescription = "prescription"
	NotificationTestResult   = "test-result"
	NotificationHealthTip    = "health-tip"
	NotificationSystem       = "system"
	NotificationAdminAlert   = "admin-alert"
	NotificationBooking      = "booking"
	NotificationCancellation = "cancellation"
	NotificationOther        = "other"
)

// Priority levels. "normal" is accepted on the wire as an alias of medium
// and normalized at the validation boundary.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// User roles recognized by the platform.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Notification represents a single entry in the notification panel
// FUNCTIONAL DISCOVERY: Records are immutable after creation; consumers
// only ever remove or evict them, never edit in place
type Notification struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Priority  string                 `json:"priority"`
	Data      map[string]interface{} `json:"data,omitempty"` // Opaque payload, not interpreted here
	CreatedAt time.Time              `json:"created_at"`
}

// Identity describes the authenticated user presented as connection credentials.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Event is the inbound wire envelope delivered by the notification server
// ARCHITECTURAL DISCOVERY: Payload as map[string]interface{} keeps the
// envelope flexible while remaining JSON compatible for websocket transport
type Event struct {
	Name    string                 `json:"event"`
	Payload map[string]interface{} `json:"data,omitempty"`
}

// OnlineUser is one entry of the users-online presence list.
type OnlineUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// FUNCTIONAL DISCOVERY: Notification IDs must be unique and orderable; a
// nanosecond timestamp alone can collide under rapid insertion, so a
// process-monotonic counter is appended
var idCounter uint64

// NewNotificationID returns a fresh orderable notification identifier.
func NewNotificationID() string {
	seq := atomic.AddUint64(&idCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), seq)
}
