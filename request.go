package networkkit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Method is an HTTP verb.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
)

// Request is a declarative description of one HTTP call. It is treated as
// immutable once handed to the pipeline; interceptors work on clones.
type Request struct {
	URL     string
	Method  Method
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
	Cache   CachePolicy
}

// Clone returns a deep copy the interceptor chain may mutate freely without
// affecting the caller's value.
func (r *Request) Clone() *Request {
	c := &Request{
		URL:     r.URL,
		Method:  r.Method,
		Timeout: r.Timeout,
		Cache:   r.Cache,
	}
	if r.Headers != nil {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	return c
}

// CacheKey derives the deterministic cache key for this request. The key
// incorporates the method, and a digest of the body when one is present, so
// a cached GET can never be served for a POST to the same URL.
func (r *Request) CacheKey() string {
	var b strings.Builder
	b.WriteString(string(r.Method))
	b.WriteByte(':')
	b.WriteString(r.URL)
	if len(r.Body) > 0 {
		sum := sha256.Sum256(r.Body)
		b.WriteByte(':')
		b.WriteString(hex.EncodeToString(sum[:8]))
	}
	return b.String()
}

func (r *Request) validate() error {
	if r.URL == "" {
		return &Error{Kind: KindInvalidTarget, Message: "request URL is empty"}
	}
	u, err := url.Parse(r.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Kind: KindInvalidTarget, Message: "request URL is not absolute", URL: r.URL, Cause: err}
	}
	if r.Method == "" {
		return &Error{Kind: KindInvalidTarget, Message: "request method is empty", URL: r.URL}
	}
	return nil
}

// endpoint returns host+path for metric labels, never the query string.
func (r *Request) endpoint() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	var b strings.Builder
	b.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		b.WriteString(u.Path)
	} else {
		b.WriteByte('/')
	}
	return b.String()
}
