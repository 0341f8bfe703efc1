package networkkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testPipeline(t *testing.T, options ...Option) *Pipeline {
	t.Helper()
	options = append([]Option{WithRetryConfig(fastRetryConfig(3))}, options...)
	p := New(options...)
	if !p.IsValid() {
		t.Fatalf("pipeline configuration invalid: %v", p.ValidationError())
	}
	return p
}

func TestExecuteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"widget"}`))
	}))
	defer server.Close()

	p := testPipeline(t)
	data, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(data) != `{"name":"widget"}` {
		t.Errorf("body = %q, want the server payload", data)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	p := testPipeline(t)
	data, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("body = %q, want %q", data, "ok")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, want 3", got)
	}
}

func TestExecuteStopsAtAttemptBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := testPipeline(t)
	_, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet})
	if err == nil {
		t.Fatal("Execute should fail when every attempt returns 503")
	}
	if KindOf(err) != KindServerError {
		t.Errorf("KindOf(err) = %v, want %v", KindOf(err), KindServerError)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, want exactly the attempt budget of 3", got)
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Attempt != 3 {
		t.Errorf("err.Attempt = %d, want 3", e.Attempt)
	}
}

func TestExecuteDoesNotRetryTerminalErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := testPipeline(t)
	_, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, want 1 for a terminal error", got)
	}
}

func TestExecuteDoesNotRetryPost(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := testPipeline(t)
	_, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodPost, Body: []byte(`{}`)})
	if err == nil {
		t.Fatal("Execute should fail")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, POST must not be retried", got)
	}
}

func TestExecuteRejectsInvalidTarget(t *testing.T) {
	p := testPipeline(t)

	tests := []*Request{
		{URL: "", Method: MethodGet},
		{URL: "not a url", Method: MethodGet},
		{URL: "/relative/path", Method: MethodGet},
		{URL: "https://api.example.com", Method: ""},
	}
	for _, req := range tests {
		_, err := p.Execute(context.Background(), req)
		if KindOf(err) != KindInvalidTarget {
			t.Errorf("Execute(%q %q) kind = %v, want %v", req.Method, req.URL, KindOf(err), KindInvalidTarget)
		}
	}
}

func TestExecuteServesFromMemoryCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("cached payload"))
	}))
	defer server.Close()

	p := testPipeline(t, WithMemoryCache(NewMemoryCache()))
	req := &Request{URL: server.URL, Method: MethodGet, Cache: CachePolicy{Mode: CacheMemory, TTL: time.Minute}}

	first, err := p.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	second, err := p.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("cached body %q differs from original %q", second, first)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, want 1 with a warm cache", got)
	}
}

func TestExecuteHybridCachePromotion(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("hybrid payload"))
	}))
	defer server.Close()

	memory := NewMemoryCache()
	durable, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	p := testPipeline(t, WithMemoryCache(memory), WithDurableCache(durable))
	req := &Request{URL: server.URL, Method: MethodGet, Cache: CachePolicy{Mode: CacheHybrid, TTL: time.Minute}}

	if _, err := p.Execute(context.Background(), req); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	// Simulate a restart: the memory tier is lost, disk survives.
	if err := memory.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Execute(context.Background(), req); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, durable tier should have served the second call", got)
	}

	// The durable hit was promoted back into memory.
	if _, ok := memory.Retrieve(context.Background(), req.CacheKey()); !ok {
		t.Error("durable hit should be promoted into the memory tier")
	}
}

func TestExecuteCacheOffBypassesStores(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer server.Close()

	memory := NewMemoryCache()
	p := testPipeline(t, WithMemoryCache(memory))
	req := &Request{URL: server.URL, Method: MethodGet}

	for i := 0; i < 2; i++ {
		if _, err := p.Execute(context.Background(), req); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("transport calls = %d, want 2 with caching off", got)
	}
	if memory.Len() != 0 {
		t.Errorf("memory cache holds %d entries, want 0 with caching off", memory.Len())
	}
}

func TestExecuteDistinguishesMethodsInCacheKey(t *testing.T) {
	var gets, posts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
			_, _ = w.Write([]byte("get result"))
			return
		}
		atomic.AddInt32(&posts, 1)
		_, _ = w.Write([]byte("post result"))
	}))
	defer server.Close()

	p := testPipeline(t, WithMemoryCache(NewMemoryCache()))
	policy := CachePolicy{Mode: CacheMemory, TTL: time.Minute}

	getBody, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet, Cache: policy})
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	postBody, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodPost, Cache: policy})
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}

	if string(getBody) == string(postBody) {
		t.Error("a cached GET must never be served for a POST to the same URL")
	}
	if atomic.LoadInt32(&posts) != 1 {
		t.Errorf("POST transport calls = %d, want 1", atomic.LoadInt32(&posts))
	}
}

func TestExecuteCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultRetryConfig()
	cfg.BaseDelay = 10 * time.Second
	cfg.MaxDelay = time.Minute
	p := New(WithRetryConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Execute(ctx, &Request{URL: server.URL, Method: MethodGet})
	if KindOf(err) != KindCancelled {
		t.Errorf("KindOf(err) = %v, want %v", KindOf(err), KindCancelled)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Execute took %v, cancellation should abort the backoff wait", elapsed)
	}
}

func TestExecuteRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := fastRetryConfig(1)
	p := New(WithRetryConfig(cfg))

	_, err := p.Execute(context.Background(), &Request{
		URL:     server.URL,
		Method:  MethodGet,
		Timeout: 20 * time.Millisecond,
	})
	if KindOf(err) != KindTimeout {
		t.Errorf("KindOf(err) = %v, want %v", KindOf(err), KindTimeout)
	}
}

func TestExecuteIntoDecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":42,"name":"widget"}`))
	}))
	defer server.Close()

	type item struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	p := testPipeline(t)
	var got item
	if err := p.ExecuteInto(context.Background(), &Request{URL: server.URL, Method: MethodGet}, &got); err != nil {
		t.Fatalf("ExecuteInto failed: %v", err)
	}
	if got.ID != 42 || got.Name != "widget" {
		t.Errorf("decoded %+v, want {42 widget}", got)
	}
}

func TestExecuteIntoEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p := testPipeline(t)
	var out map[string]any
	err := p.ExecuteInto(context.Background(), &Request{URL: server.URL, Method: MethodGet}, &out)
	if KindOf(err) != KindNoData {
		t.Errorf("KindOf(err) = %v, want %v", KindOf(err), KindNoData)
	}
}

func TestExecuteIntoMalformedBody(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	p := testPipeline(t)
	var out map[string]any
	err := p.ExecuteInto(context.Background(), &Request{URL: server.URL, Method: MethodGet}, &out)
	if KindOf(err) != KindDecodingFailed {
		t.Errorf("KindOf(err) = %v, want %v", KindOf(err), KindDecodingFailed)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, decode failures must not retry", got)
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["a","b","c"]`))
	}))
	defer server.Close()

	p := testPipeline(t)
	got, err := Fetch[[]string](context.Background(), p, &Request{URL: server.URL, Method: MethodGet})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 3 || got[0] != "a" {
		t.Errorf("Fetch = %v, want [a b c]", got)
	}
}

func TestInterceptorAdaptOrderAndHeaders(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	first := AdapterFunc(func(_ context.Context, req *Request) (*Request, error) {
		if req.Headers == nil {
			req.Headers = map[string]string{}
		}
		req.Headers["X-Trace"] = "first"
		return req, nil
	})
	second := AdapterFunc(func(_ context.Context, req *Request) (*Request, error) {
		// Registration order means this sees and overrides the first value.
		req.Headers["X-Trace"] = req.Headers["X-Trace"] + ",second"
		return req, nil
	})

	p := testPipeline(t, WithInterceptors(first, second))
	if _, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := seen.Get("X-Trace"); got != "first,second" {
		t.Errorf("X-Trace = %q, want %q", got, "first,second")
	}
}

func TestInterceptorAdaptFailureAborts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	authErr := &Error{Kind: KindUnauthorized, Message: "token refresh failed"}
	failing := AdapterFunc(func(context.Context, *Request) (*Request, error) {
		return nil, authErr
	})

	var observed []*Result
	var mu sync.Mutex
	watcher := ObserverFunc(func(_ context.Context, res *Result) {
		mu.Lock()
		observed = append(observed, res)
		mu.Unlock()
	})

	p := testPipeline(t, WithInterceptors(watcher, failing))
	_, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want the adapter's error", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("transport calls = %d, adapt failure must abort before the transport", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 1 {
		t.Fatalf("observations = %d, want 1", len(observed))
	}
	if observed[0].Err == nil {
		t.Error("observer should see the adapt failure")
	}
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	var mu sync.Mutex
	var attempts []int
	var failures int
	watcher := ObserverFunc(func(_ context.Context, res *Result) {
		mu.Lock()
		attempts = append(attempts, res.Attempt)
		if res.Err != nil {
			failures++
		}
		mu.Unlock()
	})

	p := testPipeline(t, WithInterceptors(watcher))
	if _, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 {
		t.Fatalf("observations = %d, want one per attempt", len(attempts))
	}
	for i, a := range attempts {
		if a != i+1 {
			t.Errorf("observation %d has attempt %d, want %d", i, a, i+1)
		}
	}
	if failures != 2 {
		t.Errorf("observed failures = %d, want 2", failures)
	}
}

func TestObserverPanicIsContained(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	panicking := ObserverFunc(func(context.Context, *Result) {
		panic("observer bug")
	})

	p := testPipeline(t, WithInterceptors(panicking))
	data, err := p.Execute(context.Background(), &Request{URL: server.URL, Method: MethodGet})
	if err != nil {
		t.Fatalf("Execute failed: %v, observer panics must not surface", err)
	}
	if string(data) != "ok" {
		t.Errorf("body = %q, want %q", data, "ok")
	}
}

func TestExecuteDeduplicatesConcurrentRequests(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte("shared"))
	}))
	defer server.Close()

	p := testPipeline(t, WithDeduplication())
	req := &Request{URL: server.URL, Method: MethodGet}

	const workers = 8
	var wg sync.WaitGroup
	results := make([][]byte, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Execute(context.Background(), req)
		}(i)
	}

	// Give every worker time to join the in-flight call before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if string(results[i]) != "shared" {
			t.Errorf("worker %d body = %q, want %q", i, results[i], "shared")
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, identical concurrent requests should share one", got)
	}
}

func TestExecuteDoesNotDeduplicatePost(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	p := testPipeline(t, WithDeduplication())
	req := &Request{URL: server.URL, Method: MethodPost, Body: []byte(`{}`)}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Execute(context.Background(), req)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, POST must not be merged", got)
	}
}

func TestClearCache(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryCache()
	durable, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	p := testPipeline(t, WithMemoryCache(memory), WithDurableCache(durable))

	if err := memory.Store(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := durable.Store(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	if err := p.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	if _, ok := memory.Retrieve(ctx, "k"); ok {
		t.Error("memory tier should be empty after ClearCache")
	}
	if _, ok := durable.Retrieve(ctx, "k"); ok {
		t.Error("durable tier should be empty after ClearCache")
	}
}
