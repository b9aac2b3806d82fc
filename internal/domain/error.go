package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrNoSession       = errors.New("no active dialog session")
	ErrNoTargets       = errors.New("no broadcast targets configured")
	ErrUnknownFlow     = errors.New("unknown flow kind")
	ErrInvalidArgument = errors.New("invalid argument")
)
