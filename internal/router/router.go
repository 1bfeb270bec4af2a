package router

import (
	"fmt"
	"log"
	"sync"
	"time"

	"carelink/internal/store"
	"carelink/pkg/types"
)

// Router translates inbound domain events into notification records and
// gates which event types the current session subscribes to based on role
// ARCHITECTURAL DISCOVERY: Pure mapping logic without connection handling;
// the connection manager feeds it events and it feeds the store
type Router struct {
	mu            sync.Mutex
	store         *store.Store
	subscriptions map[string]bool // active inbound event names
}

// Events every authenticated role subscribes to.
var baseEvents = []string{
	types.EventNewAppointment,
	types.EventAppointmentCancelled,
	types.EventDoctorAvailable,
	types.EventNewMessage,
	types.EventVideoCallRequest,
}

var adminEvents = []string{
	types.EventAdminAlert,
	types.EventUserRegistered,
}

var doctorEvents = []string{
	types.EventPatientBooking,
	types.EventEmergencyConsultation,
}

// NewRouter creates a router with no active subscriptions; nothing is
// routed until SetRole establishes a subscription set.
func NewRouter(st *store.Store) *Router {
	return &Router{
		store:         st,
		subscriptions: make(map[string]bool),
	}
}

// SetRole recomputes the subscription set for the given role
// FUNCTIONAL DISCOVERY: The old set is removed entry by entry before the
// new one is installed, so a role switch can never leave a stale
// subscription behind and route events meant for the previous role
func (r *Router) SetRole(role string) {
	desired := subscriptionsForRole(role)

	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.subscriptions {
		if !desired[name] {
			delete(r.subscriptions, name)
		}
	}
	for name := range desired {
		r.subscriptions[name] = true
	}
	log.Printf("Subscriptions active: role=%s count=%d", role, len(r.subscriptions))
}

// ClearRole drops every subscription (logout).
func (r *Router) ClearRole() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.subscriptions {
		delete(r.subscriptions, name)
	}
}

// Subscribed reports whether an event name is currently routed.
func (r *Router) Subscribed(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscriptions[event]
}

func subscriptionsForRole(role string) map[string]bool {
	desired := make(map[string]bool, len(baseEvents)+2)
	for _, name := range baseEvents {
		desired[name] = true
	}
	switch role {
	case types.RoleAdmin:
		for _, name := range adminEvents {
			desired[name] = true
		}
	case types.RoleDoctor:
		for _, name := range doctorEvents {
			desired[name] = true
		}
	}
	return desired
}

// Route maps one inbound event to a notification record and inserts it.
// Events outside the active subscription set are dropped; payloads missing
// required fields are skipped rather than failing the connection.
func (r *Router) Route(event types.Event) error {
	r.mu.Lock()
	subscribed := r.subscriptions[event.Name]
	r.mu.Unlock()

	if !subscribed {
		return ErrEventNotSubscribed
	}

	n, err := r.buildNotification(event)
	if err != nil {
		log.Printf("Dropping event %s: %v", event.Name, err)
		return err
	}

	r.store.Add(n)
	return nil
}

// buildNotification constructs the record for a subscribed event.
func (r *Router) buildNotification(event types.Event) (*types.Notification, error) {
	p := event.Payload

	var notifType, title, message, priority string

	switch event.Name {
	case types.EventNewAppointment:
		notifType = types.NotificationAppointment
		title = "New Appointment"
		message = stringField(p, "message", "A new appointment has been scheduled")
		priority = types.PriorityMedium

	case types.EventAppointmentCancelled:
		notifType = types.NotificationCancellation
		title = "Appointment Cancelled"
		message = stringField(p, "message", "An appointment has been cancelled")
		priority = types.PriorityMedium

	case types.EventDoctorAvailable:
		notifType = types.NotificationAvailability
		title = "Doctor Available"
		if name, ok := requireString(p, "doctorName"); ok {
			message = fmt.Sprintf("Dr. %s is now available for consultations", name)
		} else {
			message = "A doctor is now available for consultations"
		}
		priority = types.PriorityMedium

	case types.EventNewMessage:
		notifType = types.NotificationMessage
		body, ok := requireString(p, "message")
		if !ok {
			return nil, fmt.Errorf("%w: message", ErrMissingField)
		}
		if sender, ok := requireString(p, "senderName"); ok {
			title = fmt.Sprintf("Message from %s", sender)
		} else {
			title = "New Message"
		}
		message = body
		priority = types.PriorityMedium

	case types.EventVideoCallRequest:
		// Toast actions need the call ID to accept or reject; without it
		// the notification is unactionable and the event is skipped.
		if _, ok := requireString(p, "callId"); !ok {
			return nil, fmt.Errorf("%w: callId", ErrMissingField)
		}
		notifType = types.NotificationVideoCall
		title = "Incoming Video Call"
		if caller, ok := requireString(p, "callerName"); ok {
			message = fmt.Sprintf("%s is requesting a video consultation", caller)
		} else {
			message = "You have an incoming video consultation request"
		}
		priority = types.PriorityHigh

	case types.EventAdminAlert:
		notifType = types.NotificationAdminAlert
		title = stringField(p, "title", "Admin Alert")
		body, ok := requireString(p, "message")
		if !ok {
			return nil, fmt.Errorf("%w: message", ErrMissingField)
		}
		message = body
		priority = types.NormalizePriority(stringField(p, "priority", ""))

	case types.EventUserRegistered:
		notifType = types.NotificationRegistration
		title = "New User Registered"
		if name, ok := requireString(p, "userName"); ok {
			message = fmt.Sprintf("%s has joined the platform", name)
		} else {
			message = "A new user has joined the platform"
		}
		priority = types.PriorityMedium

	case types.EventPatientBooking:
		notifType = types.NotificationBooking
		title = "New Booking"
		if name, ok := requireString(p, "patientName"); ok {
			message = fmt.Sprintf("%s has booked an appointment with you", name)
		} else {
			message = "A patient has booked an appointment with you"
		}
		priority = types.PriorityMedium

	case types.EventEmergencyConsultation:
		notifType = types.NotificationEmergency
		title = "Emergency Consultation"
		message = stringField(p, "message", "A patient has requested an emergency consultation")
		priority = types.PriorityHigh

	default:
		return nil, ErrUnknownEvent
	}

	return &types.Notification{
		ID:        types.NewNotificationID(),
		Type:      notifType,
		Title:     title,
		Message:   message,
		Priority:  priority,
		Data:      p,
		CreatedAt: time.Now(),
	}, nil
}

// stringField returns the payload string for key, or fallback when absent.
func stringField(p map[string]interface{}, key, fallback string) string {
	if s, ok := requireString(p, key); ok {
		return s
	}
	return fallback
}

// requireString extracts a non-empty string payload field.
func requireString(p map[string]interface{}, key string) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
