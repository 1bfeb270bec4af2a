package types

import "regexp"

// Compiled once at package initialization; validation runs on every inbound event.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate ensures the notification record meets all requirements
// ARCHITECTURAL DISCOVERY: Validation at type level ensures consistency
// across router, store, and history without duplicating the rules
func (n *Notification) Validate() error {
	if n.ID == "" {
		return ErrMissingNotificationID
	}
	if !IsValidNotificationType(n.Type) {
		return ErrInvalidNotificationType
	}
	if n.Title == "" {
		return ErrMissingTitle
	}
	if !IsValidPriority(n.Priority) {
		return ErrInvalidPriority
	}
	return nil
}

// IsValidUserID checks if a user ID meets format requirements.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// IsValidRole checks if the role is one of the three platform roles.
func IsValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsValidNotificationType checks the type against the fixed tag set.
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationAppointment,
		NotificationVideoCall,
		NotificationMessage,
		NotificationRegistration,
		NotificationEmergency,
		NotificationAvailability,
		NotificationPrescription,
		NotificationTestResult,
		NotificationHealthTip,
		NotificationSystem,
		NotificationAdminAlert,
		NotificationBooking,
		NotificationCancellation,
		NotificationOther:
		return true
	default:
		return false
	}
}

// IsValidPriority checks a normalized priority value.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// NormalizePriority maps wire-level priority strings onto the fixed set
// FUNCTIONAL DISCOVERY: The server emits "normal" on some admin paths;
// it is treated as a synonym of medium. Unknown values also fall back
// to medium rather than rejecting the whole event
func NormalizePriority(p string) string {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	case "normal", "":
		return PriorityMedium
	default:
		return PriorityMedium
	}
}
