package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrInvalidPriority   = errors.New("domain: invalid priority")
	ErrMalformedSnapshot = errors.New("domain: malformed snapshot")
)
