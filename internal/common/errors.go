// Package common defines the error taxonomy and shared constants used across
// the gophprint client layers. Callers should use errors.Is to match these
// values; clients wrap the underlying cause with %w.
package common

import "errors"

var (
	// Input errors.
	ErrValidation = errors.New("invalid email or phone number")

	// Lookup produced a valid, negative answer.
	ErrNotFound = errors.New("user not found")

	// Network failure, timeout or non-2xx status. A timeout is reported the
	// same way as any other transport failure.
	ErrTransport = errors.New("request failed")

	// Device errors.
	ErrDeviceUnavailable = errors.New("fingerprint device unavailable")
	ErrCaptureFailure    = errors.New("fingerprint capture failed")

	// Backend reported that the template does not match.
	ErrVerificationMismatch = errors.New("fingerprint verification failed")

	// Missing or invalid session on protected-view entry.
	ErrPersistenceGap = errors.New("no valid session")

	// Another operation is already in flight.
	ErrBusy = errors.New("operation in progress")
)
