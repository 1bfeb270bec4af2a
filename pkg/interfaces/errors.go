package interfaces

import "errors"

// Shared boundary errors referenced across implementations.
var (
	ErrTransportClosed = errors.New("transport is closed")
	ErrHistoryClosed   = errors.New("history store is closed")
)
