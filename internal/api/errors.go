package api

import (
	"errors"
	"net/http"
)

// Kind classifies how a call to the order backend failed.
type Kind int

const (
	// KindTransport: the request never produced an HTTP response.
	KindTransport Kind = iota + 1
	// KindStatus: non-2xx with a structured JSON error body.
	KindStatus
	// KindStatusText: non-2xx with a plain-text (or empty) body.
	KindStatusText
	// KindRejected: 2xx whose payload reports failure.
	KindRejected
	// KindMalformed: 2xx whose payload cannot be decoded or fails validation.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindStatusText:
		return "status_text"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

const (
	msgUnavailable = "An error occurred. Please try again."
	msgGeneric     = "An error occurred"
	msgMalformed   = "Unexpected response from the order service"
)

// Error is returned by every Client method. Message is safe to show to the
// user as-is.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// KindOf returns the failure kind of err, or 0 for non-API errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}
