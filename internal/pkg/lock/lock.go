// Package lock provides per-username locking for the shared user registry.
// Human logins and virtual bot transitions both claim a name through it, so a
// registry check-then-write on one name is never interleaved with another.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a name cannot be claimed before the deadline.
var ErrLockTimeout = errors.New("name lock timeout")

// nameMutex wraps a mutex with reference counting for cleanup.
type nameMutex struct {
	mu       sync.Mutex
	refCount int
}

// NameLock provides per-name locking.
type NameLock struct {
	locks sync.Map // map[string]*nameMutex
	pool  sync.Pool
}

// NewNameLock creates a new NameLock instance.
func NewNameLock() *NameLock {
	return &NameLock{
		pool: sync.Pool{
			New: func() any {
				return &nameMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given name.
func (nl *NameLock) getLock(name string) *nameMutex {
	if v, ok := nl.locks.Load(name); ok {
		return v.(*nameMutex)
	}

	newLock := nl.pool.Get().(*nameMutex)
	newLock.refCount = 0

	// Store or load existing (handles race condition)
	actual, loaded := nl.locks.LoadOrStore(name, newLock)
	if loaded {
		nl.pool.Put(newLock)
	}
	return actual.(*nameMutex)
}

// Lock acquires the lock for a name.
func (nl *NameLock) Lock(name string) {
	l := nl.getLock(name)
	l.mu.Lock()
	l.refCount++
}

// Unlock releases the lock for a name.
func (nl *NameLock) Unlock(name string) {
	if v, ok := nl.locks.Load(name); ok {
		l := v.(*nameMutex)
		l.refCount--
		l.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (nl *NameLock) TryLock(name string) bool {
	l := nl.getLock(name)
	if l.mu.TryLock() {
		l.refCount++
		return true
	}
	return false
}

// LockWithTimeout attempts to acquire the lock within timeout.
// Returns true if the lock was acquired.
func (nl *NameLock) LockWithTimeout(ctx context.Context, name string, timeout time.Duration) bool {
	l := nl.getLock(name)

	done := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		l.refCount++
		return true
	case <-timeoutCtx.Done():
		// the waiter still acquires eventually; hand the lock straight back
		go func() {
			<-done
			l.mu.Unlock()
		}()
		return false
	}
}

// WithLock executes fn while holding the name's lock.
func (nl *NameLock) WithLock(name string, fn func() error) error {
	nl.Lock(name)
	defer nl.Unlock(name)
	return fn()
}

// WithLockContext executes fn while holding the name's lock, giving up after timeout.
func (nl *NameLock) WithLockContext(ctx context.Context, name string, timeout time.Duration, fn func() error) error {
	if !nl.LockWithTimeout(ctx, name, timeout) {
		return ErrLockTimeout
	}
	defer nl.Unlock(name)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

// IsLocked checks if a name currently has an active lock.
// Note: This is a point-in-time check and may change immediately after.
func (nl *NameLock) IsLocked(name string) bool {
	if v, ok := nl.locks.Load(name); ok {
		l := v.(*nameMutex)
		if l.mu.TryLock() {
			l.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
