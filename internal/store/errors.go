package store

import "errors"

var (
	// ErrConflict means the appointment's time window overlaps an existing
	// non-canceled appointment; it is detected atomically at insert time.
	ErrConflict            = errors.New("slot conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	ErrInvalidTransition   = errors.New("invalid status transition")
)
