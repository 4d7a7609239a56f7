package domain

import "errors"

// Sentinel errors shared across services and repositories. Handlers map
// these to HTTP statuses at the boundary; everything else is internal.
var (
	ErrNotFound      = errors.New("not found")
	ErrChatClosed    = errors.New("chat is closed")
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidStatus = errors.New("invalid chat status")
)
