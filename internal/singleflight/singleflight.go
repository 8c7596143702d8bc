// Package singleflight coalesces concurrent calls that share a key so only
// one execution is in flight at a time. It backs token refresh coordination
// and opt-in request deduplication.
package singleflight

import "sync"

// Group manages a set of in-flight calls keyed by string.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

// call is an active or completed execution shared between callers.
type call struct {
	wg  sync.WaitGroup
	val interface{}
	err error
}

// New creates an empty Group.
func New() *Group {
	return &Group{m: make(map[string]*call)}
}

// Do executes fn, making sure only one execution is in flight for key at a
// time. A duplicate caller waits for the original and receives the same
// results. The second return value reports whether this caller owned the
// execution.
func (g *Group) Do(key string, fn func() (interface{}, error)) (interface{}, error, bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err, false
	}

	c := &call{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.wg.Done()

	// Drop the key as soon as the call completes: only callers that
	// overlapped the execution share its result, a later caller runs fresh.
	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	g.mu.Unlock()

	return c.val, c.err, true
}

// Forget removes key from the group, letting the next call with the same key
// execute even if a previous call is still in progress.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
