// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and stable; clients branch on
// them programmatically while messages stay free to change.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific: carried inside event results, not error envelopes,
	// because command failures are routine chat replies rather than HTTP
	// errors (see event_handler.go).
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeAlreadyInState    = "already_in_state"
	ErrCodeStorageFailed     = "storage_failed"
)
