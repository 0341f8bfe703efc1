// Package singleflight coalesces concurrent calls that share a key onto one
// execution. It is a minimal implementation focused on owner/waiter
// semantics for request de-duplication: waiters can abandon the wait through
// their context without affecting the owner.
package singleflight

import (
	"context"
	"sync"
)

// Group manages a set of in-flight calls keyed by string.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

// call represents an active or completed execution.
type call struct {
	done chan struct{}
	val  []byte
	err  error
}

// New creates an empty Group.
func New() *Group {
	return &Group{m: make(map[string]*call)}
}

// Do executes fn, making sure only one execution is in flight for key at a
// time. Duplicate callers wait for the original to complete and receive the
// same result; owner reports whether this caller ran fn itself. A waiter
// whose ctx is cancelled returns ctx.Err() while the owner keeps running.
func (g *Group) Do(ctx context.Context, key string, fn func() ([]byte, error)) (val []byte, err error, owner bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, false
		case <-ctx.Done():
			return nil, ctx.Err(), false
		}
	}

	c := &call{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	g.mu.Unlock()
	close(c.done)

	return c.val, c.err, true
}

// Forget removes key from the group, letting the next caller execute even if
// a previous call is still in progress.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
