package orchestrator

import "errors"

var (
	// ErrBusy is returned when a call is already in flight for the mode
	ErrBusy = errors.New("analysis already in progress")
	// ErrWrongMode is returned when a submission does not match the active mode
	ErrWrongMode = errors.New("submission does not match the active mode")
	// ErrHistoryNotFound is returned when selecting an unknown history id
	ErrHistoryNotFound = errors.New("history item not found")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("orchestrator closed")
)

// ValidationError is a local rejection of user input. No backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FailureKind classifies errors surfaced on the error channel
type FailureKind string

const (
	// FailureTransport covers non-2xx responses and transport exceptions
	FailureTransport FailureKind = "transport"
	// FailureBackend is an error reported in a 2xx response body
	FailureBackend FailureKind = "backend"
	// FailureShape is a 2xx body that matches no known shape
	FailureShape FailureKind = "shape"
)

// Failure is what the error (toast) channel shows
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}
