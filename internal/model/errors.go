package model

import "errors"

// Validation errors for endpoints and targets.
//
// Design decision: We use package-level sentinel errors so callers can use
// errors.Is() for programmatic handling while still getting human-readable
// messages.
var (
	// ErrEmptyHost is returned when a target or endpoint has no hostname.
	ErrEmptyHost = errors.New("empty host")

	// ErrInvalidPort is returned when a port is outside [0, 65535] or
	// does not parse as an integer.
	ErrInvalidPort = errors.New("invalid port: must be an integer between 0 and 65535")
)
