package networkkit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageFormat(t *testing.T) {
	err := &Error{
		Kind:       KindServerError,
		Message:    "server error",
		StatusCode: 503,
		Method:     MethodGet,
		URL:        "https://api.example.com/v1/items",
		Attempt:    2,
	}

	got := err.Error()
	for _, want := range []string{"ServerError", "server error", "503", "GET", "https://api.example.com/v1/items", "attempt 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: KindConnectivityLost, Message: "connection lost", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := &Error{Kind: KindNotFound, Message: "not found", StatusCode: 404, URL: "https://api.example.com/missing"}

	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should match ErrNotFound regardless of context fields")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("errors.Is must not match a different kind")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"typed", &Error{Kind: KindTimeout}, KindTimeout},
		{"wrapped typed", fmt.Errorf("outer: %w", &Error{Kind: KindForbidden}), KindForbidden},
		{"context canceled", context.Canceled, KindCancelled},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"opaque", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	transient := []ErrorKind{KindTimeout, KindServerError, KindConnectivityLost}
	for _, kind := range transient {
		if !IsTransient(&Error{Kind: kind}) {
			t.Errorf("IsTransient(%v) = false, want true", kind)
		}
	}

	terminal := []ErrorKind{KindUnauthorized, KindForbidden, KindNotFound, KindDecodingFailed, KindCancelled, KindHTTPStatus, KindUnknown}
	for _, kind := range terminal {
		if IsTransient(&Error{Kind: kind}) {
			t.Errorf("IsTransient(%v) = true, want false", kind)
		}
	}
}
