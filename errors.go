package networkkit

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failure independently of the transport's native
// error representation. Retry policy, logging and metrics all key off the
// kind, never off concrete error types.
type ErrorKind string

const (
	KindInvalidTarget    ErrorKind = "InvalidTarget"
	KindNoData           ErrorKind = "NoData"
	KindDecodingFailed   ErrorKind = "DecodingFailed"
	KindEncodingFailed   ErrorKind = "EncodingFailed"
	KindHTTPStatus       ErrorKind = "HTTPStatus"
	KindUnauthorized     ErrorKind = "Unauthorized"
	KindForbidden        ErrorKind = "Forbidden"
	KindNotFound         ErrorKind = "NotFound"
	KindServerError      ErrorKind = "ServerError"
	KindTimeout          ErrorKind = "Timeout"
	KindConnectivityLost ErrorKind = "ConnectivityLost"
	KindCancelled        ErrorKind = "Cancelled"
	KindRateLimited      ErrorKind = "RateLimited"
	KindCircuitOpen      ErrorKind = "CircuitOpen"
	KindUnknown          ErrorKind = "Unknown"
)

// Sentinel values for errors.Is comparisons against a kind.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrTimeout      = &Error{Kind: KindTimeout, Message: "request timed out"}
	ErrCancelled    = &Error{Kind: KindCancelled, Message: "request cancelled"}
	ErrCircuitOpen  = &Error{Kind: KindCircuitOpen, Message: "circuit open"}
	ErrRateLimited  = &Error{Kind: KindRateLimited, Message: "rate limited"}
)

// Error is the error type surfaced by the pipeline. Kind carries the
// classification; the remaining fields are diagnostic context.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Method     Method
	URL        string
	Attempt    int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Method != "" && e.URL != "" {
		msg = fmt.Sprintf("%s [%s %s]", msg, e.Method, e.URL)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d)", msg, e.Attempt)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches two pipeline errors by kind, so
// errors.Is(err, networkkit.ErrNotFound) works regardless of context fields.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf classifies an arbitrary error into the shared taxonomy. Context
// cancellation and deadline errors are recognized even when they escape
// without wrapping.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsTransient reports whether an error represents a failure that might
// succeed if the request were issued again: timeouts, connectivity loss and
// server-side errors. Client errors, decode failures and cancellation are
// not transient.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindServerError, KindConnectivityLost:
		return true
	default:
		return false
	}
}

func statusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
