package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrEmailRequired     = errors.New("email is required")
	ErrRequestInFlight   = errors.New("a request is already in flight")
	ErrSessionClosed     = errors.New("chat session is closed")
	ErrSuggestionsClosed = errors.New("suggestions are only available before the first message")
	ErrPageClosed        = errors.New("bookings page is closed")
)
