package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable signals that the backend could not be reached or answered
	// with something that is not a response envelope.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected signals an envelope with success=false.
	ErrRejected = errors.New("request rejected")
)

// APIError carries the backend message of a failed call.
// It unwraps to ErrUnavailable or ErrRejected.
type APIError struct {
	Op      string
	Status  int
	Message string
	kind    error
	cause   error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.kind.Error())
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// NewRejected creates an APIError for an envelope with success=false.
func NewRejected(op string, status int, message string) error {
	return &APIError{Op: op, Status: status, Message: message, kind: ErrRejected}
}

// NewUnavailable creates an APIError for a transport-level failure.
// message may be empty when the backend sent no body.
func NewUnavailable(op string, status int, message string) error {
	return &APIError{Op: op, Status: status, Message: message, kind: ErrUnavailable}
}

// WrapUnavailable creates an APIError for a failed round trip. The cause stays
// reachable through errors.Is / errors.As (context cancellation, net errors).
func WrapUnavailable(op string, cause error) error {
	return &APIError{Op: op, Message: cause.Error(), kind: ErrUnavailable, cause: cause}
}

// FallbackMessage is shown when neither the backend nor the transport
// produced any text.
const FallbackMessage = "network request failed"

// UserMessage picks the text to show for a failed fetch: the backend message
// when one was sent, else the error text, else FallbackMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
