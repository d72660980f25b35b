package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies a backend failure for the degradation controller.
type FailureKind string

const (
	// FailureUnavailable means the adapter cannot reach its model.
	FailureUnavailable FailureKind = "unavailable"
	// FailureTimeout means the call exceeded its adaptive deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureContentFiltered means the backend refused on policy grounds.
	FailureContentFiltered FailureKind = "content_filtered"
	// FailureMalformedResponse means the adapter cannot parse the response.
	FailureMalformedResponse FailureKind = "malformed_response"
)

// Error is the classified failure every adapter returns from Send.
type Error struct {
	Kind    FailureKind
	Backend string
	cause   error
}

// NewError wraps a cause with a failure kind and the originating backend id.
func NewError(kind FailureKind, backendID string, cause error) *Error {
	return &Error{Kind: kind, Backend: backendID, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("backend %s: %s", e.Backend, e.Kind)
	}
	return fmt.Sprintf("backend %s: %s: %v", e.Backend, e.Kind, e.cause)
}

// Unwrap exposes the underlying transport or decode error.
func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the failure kind from an adapter error. Unclassified errors
// report as unavailable so the ladder still advances.
func KindOf(err error) FailureKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return FailureUnavailable
}

// classifyTransport maps context and network errors onto the shared taxonomy.
func classifyTransport(backendID string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(FailureTimeout, backendID, err)
	case errors.Is(err, context.Canceled):
		return NewError(FailureUnavailable, backendID, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(FailureTimeout, backendID, err)
	}
	return NewError(FailureUnavailable, backendID, err)
}
