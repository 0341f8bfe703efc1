package networkkit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Transport is the capability interface the pipeline consumes for one raw
// HTTP round-trip. Implementations must honor ctx deadlines and cancellation;
// the pipeline derives the per-request deadline from Request.Timeout before
// calling Send.
type Transport interface {
	Send(ctx context.Context, req *Request) (*http.Response, error)
}

// StreamTransport is an optional extension for transports that can stream a
// request body, used by uploads to report progress as bytes leave the
// process.
type StreamTransport interface {
	SendStream(ctx context.Context, req *Request, body io.Reader, contentLength int64) (*http.Response, error)
}

// HTTPTransport executes requests over a standard *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps the given client; a nil client gets a default with a
// 30 second safety timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{client: client}
}

// Send implements the Transport interface.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*http.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	return t.send(ctx, req, body, int64(len(req.Body)))
}

// SendStream implements the StreamTransport interface.
func (t *HTTPTransport) SendStream(ctx context.Context, req *Request, body io.Reader, contentLength int64) (*http.Response, error) {
	return t.send(ctx, req, body, contentLength)
}

func (t *HTTPTransport) send(ctx context.Context, req *Request, body io.Reader, contentLength int64) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, body)
	if err != nil {
		return nil, &Error{Kind: KindInvalidTarget, Message: "building request failed", Method: req.Method, URL: req.URL, Cause: err}
	}
	if body != nil {
		httpReq.ContentLength = contentLength
	}
	// Assign header keys directly so casing is preserved exactly as supplied.
	for k, v := range req.Headers {
		httpReq.Header[k] = []string{v}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, translateTransportError(req, err)
	}
	return resp, nil
}

// translateTransportError maps net/http's native failures into the shared
// error-kind taxonomy. Every Transport implementation must perform the same
// mapping so retry classification behaves identically regardless of
// transport.
func translateTransportError(req *Request, err error) error {
	kind := KindUnknown
	message := "transport request failed"

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCancelled
		message = "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
		message = "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
		message = "request timed out"
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		kind = KindConnectivityLost
		message = "connection lost"
	default:
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			kind = KindConnectivityLost
			message = "connection lost"
		}
	}

	return &Error{Kind: kind, Message: message, Method: req.Method, URL: req.URL, Cause: err}
}
