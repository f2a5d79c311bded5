package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced to presentation. Every failure that leaves the
// gateway or a controller matches exactly one of these with errors.Is.
var (
	// ErrNetwork covers transport failures, timeouts and 5xx responses
	ErrNetwork = errors.New("network error")

	// ErrValidation is returned before submission when required fields are missing
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when the backend rejects a write (duplicate slug, protected reference)
	ErrConflict = errors.New("conflict")

	// ErrAuth is returned for a missing or rejected session or CSRF token
	ErrAuth = errors.New("authentication required")

	// ErrNotFound is returned when the backend reports the id does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned when login is rejected
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedResponse is returned when a response does not match its schema
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNotConfirmed is returned when a destructive action was not confirmed
	ErrNotConfirmed = errors.New("action not confirmed")
)

// APIError is a backend failure translated into one of the error kinds.
type APIError struct {
	Kind    error
	Status  int
	Message string

	// Field-level messages as sent by the backend, e.g. {"slug": ["already exists"]}
	Fields map[string][]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(formatFields(e.Fields))
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// ValidationError lists fields that failed local checks, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records a message for a field. Returns the receiver for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	return e
}

// Err returns nil when no field failed, so callers can write `return v.Err()`.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func formatFields(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], " ")))
	}
	return strings.Join(parts, "; ")
}
