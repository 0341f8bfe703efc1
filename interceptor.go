package networkkit

import "context"

// Interceptor has two extension points. Adapt may rewrite the outgoing
// request and may fail, aborting the attempt before any transport call.
// Observe is notified after every attempt, success or failure; it cannot
// fail and must never affect the pipeline's returned result.
type Interceptor interface {
	Adapt(ctx context.Context, req *Request) (*Request, error)
	Observe(ctx context.Context, res *Result)
}

// AdapterFunc turns a plain function into an adapt-only Interceptor.
type AdapterFunc func(ctx context.Context, req *Request) (*Request, error)

// Adapt implements the Interceptor interface.
func (f AdapterFunc) Adapt(ctx context.Context, req *Request) (*Request, error) {
	return f(ctx, req)
}

// Observe implements the Interceptor interface.
func (f AdapterFunc) Observe(context.Context, *Result) {}

// ObserverFunc turns a plain function into an observe-only Interceptor.
type ObserverFunc func(ctx context.Context, res *Result)

// Adapt implements the Interceptor interface.
func (f ObserverFunc) Adapt(_ context.Context, req *Request) (*Request, error) {
	return req, nil
}

// Observe implements the Interceptor interface.
func (f ObserverFunc) Observe(ctx context.Context, res *Result) {
	f(ctx, res)
}

// interceptorChain is the ordered sequence fixed at Pipeline construction.
type interceptorChain []Interceptor

// adapt threads the request through every interceptor in registration order,
// each seeing the previous one's output. The first error aborts the chain.
func (c interceptorChain) adapt(ctx context.Context, req *Request) (*Request, error) {
	for _, ic := range c {
		next, err := ic.Adapt(ctx, req)
		if err != nil {
			return nil, err
		}
		if next != nil {
			req = next
		}
	}
	return req, nil
}

// observe notifies every interceptor in registration order. Panics are
// swallowed: observation is fire-only.
func (c interceptorChain) observe(ctx context.Context, res *Result) {
	for _, ic := range c {
		func() {
			defer func() { _ = recover() }()
			ic.Observe(ctx, res)
		}()
	}
}
