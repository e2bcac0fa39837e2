package models

import "errors"

// Error taxonomy shared by the orchestrator, stores and transport layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrStateConflict   = errors.New("operation not allowed in current session status")
	ErrExternalService = errors.New("external service failure")

	// ErrActiveSessionExists is returned by a store when a client already owns a
	// non-terminal session.
	ErrActiveSessionExists = errors.New("client already has an active session")
	// ErrVersionConflict is returned by a store when the session was modified
	// after it was read.
	ErrVersionConflict = errors.New("session version conflict")
)
