package model

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidShareToken covers unknown, expired and revoked tokens; callers
	// at the public boundary must not distinguish between them.
	ErrInvalidShareToken = errors.New("invalid share token")

	// ErrUnavailable signals a persistence-layer failure that is safe to retry.
	ErrUnavailable = errors.New("persistence unavailable")

	// ErrInvariant marks a state that legitimate input can never produce.
	ErrInvariant = errors.New("invariant violation")
)
