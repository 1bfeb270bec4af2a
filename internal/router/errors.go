package router

import "errors"

// Router-specific error types.
var (
	ErrEventNotSubscribed = errors.New("event not in active subscription set")
	ErrUnknownEvent       = errors.New("unknown event name")
	ErrMissingField       = errors.New("event payload missing required field")
)
