package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a remote resource lookup gets a 404
	ErrNotFound = errors.New("remote resource not found")

	// ErrNotConfigured is returned when optional credentials are absent.
	// Callers distinguish this from rejected credentials: absent means
	// skip quietly, rejected is always surfaced.
	ErrNotConfigured = errors.New("credentials not configured")

	// ErrNothingToSync is returned by manual triggers that matched no
	// sync-enabled products
	ErrNothingToSync = errors.New("no products enabled for sync")

	// ErrUnattributable marks a batch response item that cannot be matched
	// to any local record
	ErrUnattributable = errors.New("batch response item cannot be attributed")
)

// UnavailableError means a remote endpoint could not be reached or probed.
// It aborts the whole run at setup time.
type UnavailableError struct {
	Status  int
	Message string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable: status %d: %s", e.Status, e.Message)
}

// UnauthenticatedError means credentials were supplied but rejected
type UnauthenticatedError struct {
	Status  int
	Message string
}

func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("authentication rejected: status %d: %s", e.Status, e.Message)
}

// RemoteRejectedError is a non-2xx response on a specific call, scoped to
// the one record being processed. Code and Message carry any parsed fields
// from the response body.
type RemoteRejectedError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteRejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote rejected: status %d: code %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote rejected: status %d: %s", e.Status, e.Message)
}

// MalformedError is a 2xx response whose body could not be parsed.
// Scoped like RemoteRejectedError.
type MalformedError struct {
	Body string
}

func (e *MalformedError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("malformed remote response: %s", body)
}

// ValidationError is locally-detected bad input (empty name, duplicate SKU),
// scoped to one record and never a transport concern
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}
