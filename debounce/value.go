package debounce

import (
	"sync"
	"time"
)

// Value is the value form of the debouncer: feed it a rapidly-changing
// input with Set and read settled values from Updates or Get. The same
// leading/trailing/maxWait options apply.
type Value[T any] struct {
	d *Debouncer[T]

	mu      sync.Mutex
	last    T
	settled bool
	closed  bool
	updates chan T
}

// NewValue returns a Value that settles after delay without a new input.
func NewValue[T any](delay time.Duration, opts ...Option) (*Value[T], error) {
	v := &Value[T]{
		updates: make(chan T, 1),
	}
	d, err := New(v.emit, delay, opts...)
	if err != nil {
		return nil, err
	}
	v.d = d
	return v, nil
}

// Set feeds a new input value. It never blocks.
func (v *Value[T]) Set(value T) {
	v.d.Call(value)
}

// Updates delivers settled values. The channel holds a single pending
// value: when the consumer lags, a newer settled value replaces the
// undelivered one rather than blocking the controller. The channel is
// closed by Stop.
func (v *Value[T]) Updates() <-chan T {
	return v.updates
}

// Get returns the most recent settled value, and false if no value has
// settled yet.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last, v.settled
}

// Flush publishes any pending value immediately.
func (v *Value[T]) Flush() {
	v.d.Flush()
}

// Stop cancels any pending publication and closes Updates. Idempotent.
func (v *Value[T]) Stop() {
	v.d.Stop()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	close(v.updates)
}

func (v *Value[T]) emit(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.last = value
	v.settled = true
	// Conflate: drop an undelivered value in favor of the newest one.
	select {
	case <-v.updates:
	default:
	}
	v.updates <- value
}
