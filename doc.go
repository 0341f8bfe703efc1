// Package networkkit provides a declarative, resilient HTTP request pipeline:
//
//   - Declarative Request values executed through a pluggable Transport
//   - Retries with exponential backoff (deterministic or jittered)
//   - Layered response caching: memory, disk, Redis, and a tiered
//     memory+durable store with read-through promotion
//   - Interceptors that rewrite outgoing requests and observe every attempt
//   - Typed JSON decoding behind a Serializer seam
//   - Streamed uploads and downloads with progress reporting
//   - Request de-duplication (merges concurrent identical in-flight requests)
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area: functional options configure everything
//   - Every collaborator (transport, cache, retrier, validator, serializer)
//     is an interface with one production implementation
//   - Safe concurrent use of a single *Pipeline instance
//   - A uniform error-kind taxonomy so retry policy is independent of the
//     transport's native error representation
//
// Typical usage:
//
//	pipe := networkkit.New(
//	    networkkit.WithRetryConfig(networkkit.DefaultRetryConfig()),
//	    networkkit.WithMemoryCache(networkkit.NewMemoryCache()),
//	    networkkit.WithDeduplication(),
//	)
//	var user User
//	err := pipe.ExecuteInto(ctx, &networkkit.Request{
//	    URL:    "https://api.example.com/users/1",
//	    Method: networkkit.MethodGet,
//	    Cache:  networkkit.CachePolicy{Mode: networkkit.CacheMemory, TTL: 5 * time.Minute},
//	}, &user)
//
// Only transient failures (timeouts, connectivity loss, 5xx responses and
// explicitly configured status codes) trigger retries, and only for methods
// in the retryable set; override with WithRetryPolicy. The pipeline avoids
// opinionated logging: provide a Logger (e.g. via WithZeroLogger) and enable
// debug flags selectively for insight without noise.
package networkkit
