package model

import "errors"

var (
	// ErrInvalidThread is returned when a thread id is not in the known thread list.
	ErrInvalidThread = errors.New("invalid thread")
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEncodingFailure is returned when the embedding call fails or returns a malformed vector.
	ErrEncodingFailure = errors.New("encoding failure")
)
