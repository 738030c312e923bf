package errors

import "errors"

var (
	ErrNotFound = errors.New("locker not found")

	ErrAlreadyExists = errors.New("locker already exists")

	// ErrStatusMismatch is returned by the conditional status update when the
	// locker's current status differs from the expected one.
	ErrStatusMismatch = errors.New("locker status does not match expected status")
)
