// Package mailbox provides a single-slot, latest-wins handoff between
// two goroutines.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox holds at most one pending value. Put replaces a value that has
// not been taken yet; there is no queue and no backpressure.
type Mailbox[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	ready   chan struct{}
}

// New returns an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, discarding any pending value. It reports whether a
// pending value was replaced.
func (m *Mailbox[T]) Put(v T) (replaced bool) {
	m.mu.Lock()
	replaced = m.pending
	m.value = v
	m.pending = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return replaced
}

// TryTake removes and returns the pending value, if any.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.pending {
		return zero, false
	}
	v := m.value
	m.value = zero
	m.pending = false
	return v, true
}

// Take blocks until a value is pending or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.ready:
		}
	}
}

// Pending reports whether a value is waiting to be taken.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Ready is signalled after every Put. Receiving from it consumes the
// signal but not the value.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}
