package networkkit

import (
	"context"
	"errors"
	"io"
)

// requestExecutor performs one transport round-trip: send the adapted
// request, drain the body, run the validator, and normalize the result into
// an immutable Response. It is the translation seam between transport-native
// failures and the shared error taxonomy.
type requestExecutor struct {
	transport Transport
	validator ResponseValidator
}

func newRequestExecutor(transport Transport, validator ResponseValidator) *requestExecutor {
	return &requestExecutor{transport: transport, validator: validator}
}

func (e *requestExecutor) run(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := withRequestTimeout(ctx, req)
	defer cancel()

	raw, err := e.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = raw.Body.Close() }()

	body, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, translateTransportError(req, err)
	}

	if err := e.validator.Validate(raw.StatusCode, body); err != nil {
		return nil, decorate(err, req)
	}

	return &Response{
		StatusCode: raw.StatusCode,
		Header:     raw.Header.Clone(),
		Body:       body,
	}, nil
}

// withRequestTimeout applies the request's own timeout on top of whatever
// deadline the caller's context already carries.
func withRequestTimeout(ctx context.Context, req *Request) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithCancel(ctx)
}

// decorate fills request context into a pipeline error without touching its
// classification.
func decorate(err error, req *Request) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Method == "" {
			e.Method = req.Method
		}
		if e.URL == "" {
			e.URL = req.URL
		}
	}
	return err
}
