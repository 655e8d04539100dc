// Package keylock provides a per-key mutual exclusion primitive whose
// hold spans arbitrary code, including collaborator calls. Session
// stores use it so at most one turn per user is in flight.
package keylock

import (
	"context"
	"sync"
)

// Locker serializes access per string key. Acquire blocks until the
// key is free or the context is done; Release must be called exactly
// once per successful Acquire.
type Locker struct {
	mu    sync.Mutex
	holds map[string]chan struct{}
}

func New() *Locker {
	return &Locker{holds: make(map[string]chan struct{})}
}

// Acquire takes the lock for key. It returns the context error if ctx
// is cancelled while waiting.
func (l *Locker) Acquire(ctx context.Context, key string) error {
	for {
		l.mu.Lock()
		held, ok := l.holds[key]
		if !ok {
			l.holds[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-held:
			// Holder released; race for the key again.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Release frees the lock for key and wakes all waiters. Releasing a
// key that is not held is a no-op.
func (l *Locker) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held, ok := l.holds[key]; ok {
		delete(l.holds, key)
		close(held)
	}
}
