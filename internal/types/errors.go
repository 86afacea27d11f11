package types

import (
	"errors"
	"fmt"
)

// The suggestion pipeline raises a closed set of error kinds so the
// extension UI can render targeted remediation text instead of a generic
// failure. Inner errors propagate to the caller unchanged; nothing is
// retried inside the pipeline.

var (
	// ErrEmptyResponse means the model returned no candidate content.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrNoSuggestions means every line of the model's response was
	// filtered out during cleanup.
	ErrNoSuggestions = errors.New("no usable suggestions in model response")
)

// ValidationError reports a missing or invalid precondition the user must
// fix (configuration or input) before a request can proceed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps an I/O failure from the key-value storage
// collaborator. It is surfaced, never retried internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure where no HTTP response was
// received. Unwrap exposes the cause, so a caller-imposed deadline shows
// up as context.DeadlineExceeded.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network failure: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidRequestError corresponds to HTTP 400: a bad API key or a
// malformed request body.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// PermissionError corresponds to HTTP 403.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return fmt.Sprintf("permission denied: %s", e.Message) }

// RateLimitError corresponds to HTTP 429; the caller should wait before
// trying again.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("rate limited: %s", e.Message) }

// APIError covers every other non-success status. Message carries the
// best-effort extracted error text, falling back to the raw body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// ContentBlockedError means the model's safety filter refused to
// generate; the user should rephrase.
type ContentBlockedError struct {
	Reason string
}

func (e *ContentBlockedError) Error() string {
	return fmt.Sprintf("generation blocked by safety filter: %s", e.Reason)
}

// UnknownActionError is returned by the command dispatcher for an action
// outside the closed command set.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string { return fmt.Sprintf("unknown action %q", e.Action) }

// ErrorKind returns a stable machine-readable label for err, used by the
// native-messaging host so the extension can branch on failure category.
func ErrorKind(err error) string {
	var (
		validation *ValidationError
		storage    *StorageError
		network    *NetworkError
		invalid    *InvalidRequestError
		permission *PermissionError
		rateLimit  *RateLimitError
		api        *APIError
		blocked    *ContentBlockedError
		unknown    *UnknownActionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &storage):
		return "storage"
	case errors.As(err, &network):
		return "network"
	case errors.As(err, &invalid):
		return "invalid_request"
	case errors.As(err, &permission):
		return "permission"
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &api):
		return "api"
	case errors.As(err, &blocked):
		return "content_blocked"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrNoSuggestions):
		return "no_suggestions"
	case errors.As(err, &unknown):
		return "unknown_action"
	default:
		return "internal"
	}
}
