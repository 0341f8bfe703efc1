package networkkit

// DedupKeyFunc builds the key identifying identical in-flight requests.
type DedupKeyFunc func(*Request) string

// DedupCondition decides whether a request is eligible for de-duplication.
type DedupCondition func(*Request) bool

// DefaultDedupKeyFunc reuses the cache key: method + URL + body digest, so
// two requests coalesce only when a shared result is actually correct.
func DefaultDedupKeyFunc(req *Request) string {
	return req.CacheKey()
}

// DefaultDedupCondition enables de-duplication for safe methods only.
func DefaultDedupCondition(req *Request) bool {
	switch req.Method {
	case MethodGet, MethodHead, MethodOptions:
		return true
	default:
		return false
	}
}
