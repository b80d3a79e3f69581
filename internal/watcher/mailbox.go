package watcher

import (
	"context"
	"sync"
)

// Mailbox is a single-slot, latest-value cell. Publish overwrites whatever
// is in the slot, so a reader that falls behind loses intermediate values.
// Each value carries a version; readers remember the last version they saw.
type Mailbox[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	changed chan struct{} // closed and replaced on every publish
	closed  bool
}

// NewMailbox returns an empty mailbox. Version 0 means "nothing published".
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{changed: make(chan struct{})}
}

// Publish stores v as the latest value and wakes every waiter.
// Publishing to a closed mailbox is a no-op.
func (m *Mailbox[T]) Publish(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.value = v
	m.version++
	close(m.changed)
	m.changed = make(chan struct{})
}

// Latest returns the current value and its version without blocking.
func (m *Mailbox[T]) Latest() (T, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.version
}

// Wait blocks until a value newer than seen is available and returns it
// with its version. Once the mailbox is closed and nothing newer than seen
// remains, it returns ErrStopped.
func (m *Mailbox[T]) Wait(ctx context.Context, seen uint64) (T, uint64, error) {
	for {
		m.mu.Lock()
		if m.version > seen {
			v, ver := m.value, m.version
			m.mu.Unlock()
			return v, ver, nil
		}
		if m.closed {
			m.mu.Unlock()
			var zero T
			return zero, seen, ErrStopped
		}
		ch := m.changed
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, seen, ctx.Err()
		case <-ch:
		}
	}
}

// Close wakes all waiters; later publishes are dropped. Closing twice is safe.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.changed)
}
