// Package state holds the one mutable value every handler on a server
// shares.
package state

import "sync"

// Container owns the server's shared state for the server's lifetime. All
// access goes through Apply, so at most one handler observes or mutates
// the value at any instant, and every handler sees the effects of all
// handlers that ran before it.
//
// There is no rollback. A handler that mutates the state and then returns
// an error leaves its mutation in place; the error reports the failure, it
// does not undo work.
type Container struct {
	mu    sync.Mutex
	value any
}

// NewContainer wraps the initial state value. The container owns the value
// from here on; callers must not retain a reference and mutate it outside
// Apply.
func NewContainer(initial any) *Container {
	return &Container{value: initial}
}

// Apply runs fn with exclusive access to the state and relays its results.
// The lock is released when fn returns or panics — never earlier, never
// later. Network I/O stays outside: the server decodes the query before
// calling Apply and writes the response after it returns.
func (c *Container) Apply(fn func(state any) (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.value)
}
