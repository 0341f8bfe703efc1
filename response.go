package networkkit

import "net/http"

// Response is the immutable, fully-buffered outcome of one successful
// transport attempt. Header casing is whatever the transport delivered.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Result is what observers receive after every attempt: the adapted request
// that was actually sent, and either the response or the attempt's error.
type Result struct {
	Request  *Request
	Response *Response
	Err      error
	Attempt  int
}
