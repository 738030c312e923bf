package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrStatusConflict is returned by conditional status writes when the
	// booking's current status differs from the expected one.
	ErrStatusConflict = errors.New("booking status does not match expected status")
)
