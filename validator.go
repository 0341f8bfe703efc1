package networkkit

import "fmt"

// ResponseValidator maps a transport status code to success or a typed
// failure. Its mapping is the single source of truth the retry policy relies
// on for classification.
type ResponseValidator interface {
	Validate(statusCode int, body []byte) error
}

// StatusRangeValidator accepts status codes in [Min, Max) and maps everything
// else to a named error kind.
type StatusRangeValidator struct {
	Min int
	Max int
}

// NewStatusRangeValidator returns the default validator accepting [200, 300).
func NewStatusRangeValidator() *StatusRangeValidator {
	return &StatusRangeValidator{Min: 200, Max: 300}
}

// Validate returns nil for acceptable codes. Failures map 401, 403 and 404 to
// their dedicated kinds, any 5xx to KindServerError, and everything else to
// KindHTTPStatus carrying the raw code.
func (v *StatusRangeValidator) Validate(statusCode int, body []byte) error {
	if statusCode >= v.Min && statusCode < v.Max {
		return nil
	}

	switch {
	case statusCode == 401:
		return &Error{Kind: KindUnauthorized, Message: "unauthorized", StatusCode: statusCode}
	case statusCode == 403:
		return &Error{Kind: KindForbidden, Message: "forbidden", StatusCode: statusCode}
	case statusCode == 404:
		return &Error{Kind: KindNotFound, Message: "not found", StatusCode: statusCode}
	case statusCode >= 500 && statusCode < 600:
		return &Error{Kind: KindServerError, Message: "server error", StatusCode: statusCode}
	default:
		return &Error{
			Kind:       KindHTTPStatus,
			Message:    fmt.Sprintf("unacceptable status code %d", statusCode),
			StatusCode: statusCode,
		}
	}
}
