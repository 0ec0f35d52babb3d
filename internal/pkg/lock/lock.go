// Package lock provides per-key locking so operations on the same wallet
// account never interleave.
package lock

import (
	"context"
	"sync"
	"time"
)

// entry is a one-slot semaphore with a count of goroutines holding or
// waiting for it, so idle keys can be dropped.
type entry struct {
	sem  chan struct{}
	refs int
}

// KeyedLock serializes work per key. The zero value is not usable; create
// one with New.
type KeyedLock[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New creates a KeyedLock.
func New[K comparable]() *KeyedLock[K] {
	return &KeyedLock[K]{entries: make(map[K]*entry)}
}

func (l *KeyedLock[K]) acquireRef(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLock[K]) releaseRef(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Lock acquires the lock for key.
func (l *KeyedLock[K]) Lock(key K) {
	e := l.acquireRef(key)
	e.sem <- struct{}{}
}

// Unlock releases the lock for key. Unlocking a key that is not locked panics.
func (l *KeyedLock[K]) Unlock(key K) {
	l.mu.Lock()
	e, ok := l.entries[key]
	l.mu.Unlock()
	if !ok {
		panic("lock: unlock of unlocked key")
	}

	select {
	case <-e.sem:
	default:
		panic("lock: unlock of unlocked key")
	}
	l.releaseRef(key, e)
}

// TryLock attempts to acquire the lock without blocking.
func (l *KeyedLock[K]) TryLock(key K) bool {
	e := l.acquireRef(key)
	select {
	case e.sem <- struct{}{}:
		return true
	default:
		l.releaseRef(key, e)
		return false
	}
}

// LockContext acquires the lock for key, giving up when ctx is done or
// timeout elapses. A non-positive timeout waits for ctx alone.
func (l *KeyedLock[K]) LockContext(ctx context.Context, key K, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e := l.acquireRef(key)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.releaseRef(key, e)
		if ctx.Err() == context.DeadlineExceeded {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLock executes fn while holding the lock for key.
func (l *KeyedLock[K]) WithLock(key K, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}

// WithLockContext executes fn while holding the lock for key, waiting at
// most timeout to acquire it.
func (l *KeyedLock[K]) WithLockContext(ctx context.Context, key K, timeout time.Duration, fn func() error) error {
	if err := l.LockContext(ctx, key, timeout); err != nil {
		return err
	}
	defer l.Unlock(key)
	return fn()
}

// IsLocked reports whether key is currently held. The answer may be stale
// by the time it is returned.
func (l *KeyedLock[K]) IsLocked(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	return ok && len(e.sem) == 1
}

// Len returns the number of keys currently held or awaited.
func (l *KeyedLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
