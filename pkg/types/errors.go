package types

import "errors"

// Specific error types enable proper error handling and readable log lines.
var (
	ErrMissingNotificationID   = errors.New("notification ID cannot be empty")
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrMissingTitle            = errors.New("notification title cannot be empty")
	ErrInvalidPriority         = errors.New("priority must be low, medium, or high")
	ErrInvalidRole             = errors.New("role must be patient, doctor, or admin")
	ErrInvalidUserID           = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
)
