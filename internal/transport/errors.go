package transport

import "errors"

// Connection-related errors.
var (
	ErrInvalidServerURL = errors.New("invalid notification server URL")
	ErrInvalidPayload   = errors.New("payload is not JSON-serializable")
	ErrWriteTimeout     = errors.New("write timeout after 5 seconds")
)
