// Package debounce coalesces bursts of calls or value changes into a
// single delayed action. A burst fires on its trailing edge after a quiet
// period, optionally on its leading edge as well, and a maximum-wait
// ceiling bounds how long a sustained burst can postpone the fire.
package debounce

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrDelay is returned when the quiet-period delay is not positive.
	ErrDelay = errors.New("debounce: delay must be positive")
	// ErrMaxWait is returned when maxWait is shorter than the delay.
	ErrMaxWait = errors.New("debounce: maxWait must be at least the delay")
	// ErrNoEdge is returned when both the leading and trailing edges are
	// disabled, leaving a gate that can never fire.
	ErrNoEdge = errors.New("debounce: at least one of leading or trailing must be enabled")
)

type config struct {
	leading  bool
	trailing bool
	maxWait  time.Duration
}

// Option adjusts debounce behavior.
type Option func(*config)

// Leading fires the first call of a burst immediately.
func Leading() Option {
	return func(c *config) { c.leading = true }
}

// NoTrailing suppresses the fire that normally follows the quiet period.
func NoTrailing() Option {
	return func(c *config) { c.trailing = false }
}

// MaxWait caps the total delay from the first call of a burst. When a
// sustained burst keeps restarting the quiet period, the pending
// invocation is flushed with the latest arguments once d has elapsed.
// The flush ends the burst, so the trailing timer is cancelled rather
// than firing a duplicate, and the next call starts a fresh burst.
func MaxWait(d time.Duration) Option {
	return func(c *config) { c.maxWait = d }
}

// Debouncer gates calls to a wrapped function. At most one invocation is
// pending at any time; rapid calls coalesce into a single invocation
// carrying the most recent arguments.
//
// Safe for concurrent use. The wrapped function is invoked without the
// internal lock held, so it may call back into the Debouncer.
type Debouncer[T any] struct {
	mu    sync.Mutex
	fn    func(T)
	delay time.Duration
	cfg   config

	// gen identifies the current burst; quietSeq identifies the current
	// arming of the quiet timer within it. Timer callbacks re-check both
	// under the lock, so a timer that was cancelled or superseded while
	// already firing never executes its effect.
	gen      uint64
	quietSeq uint64

	pending         bool
	trailingPending bool
	lastArgs        T
	quietTimer      *time.Timer
	maxTimer        *time.Timer
	stopped         bool
}

// New wraps fn in a Debouncer that fires after delay of quiet. The
// default is trailing-edge only; see Leading, NoTrailing, and MaxWait.
func New[T any](fn func(T), delay time.Duration, opts ...Option) (*Debouncer[T], error) {
	if fn == nil {
		return nil, errors.New("debounce: fn must not be nil")
	}
	if delay <= 0 {
		return nil, ErrDelay
	}
	cfg := config{trailing: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.leading && !cfg.trailing {
		return nil, ErrNoEdge
	}
	if cfg.maxWait > 0 && cfg.maxWait < delay {
		return nil, ErrMaxWait
	}
	return &Debouncer[T]{
		fn:    fn,
		delay: delay,
		cfg:   cfg,
	}, nil
}

// Call records args as the burst's most recent arguments and restarts the
// quiet period. The first call of a burst fires immediately when the
// leading edge is enabled; the burst's last arguments fire after the
// quiet period when the trailing edge is enabled. A leading fire with no
// subsequent call does not fire again on the trailing edge.
func (d *Debouncer[T]) Call(args T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.lastArgs = args

	if !d.pending {
		d.pending = true
		fireLeading := d.cfg.leading
		if d.cfg.trailing && !fireLeading {
			d.trailingPending = true
		}
		gen := d.gen
		d.quietSeq++
		seq := d.quietSeq
		d.quietTimer = time.AfterFunc(d.delay, func() { d.onQuiet(gen, seq) })
		if d.cfg.maxWait > 0 {
			d.maxTimer = time.AfterFunc(d.cfg.maxWait, func() { d.onMaxWait(gen) })
		}
		d.mu.Unlock()
		if fireLeading {
			d.fn(args)
		}
		return
	}

	// Burst in progress: the latest args win and the quiet period
	// restarts. The maxWait timer keeps running from the first call.
	if d.cfg.trailing {
		d.trailingPending = true
	}
	gen := d.gen
	d.quietSeq++
	seq := d.quietSeq
	d.quietTimer.Stop()
	d.quietTimer = time.AfterFunc(d.delay, func() { d.onQuiet(gen, seq) })
	d.mu.Unlock()
}

func (d *Debouncer[T]) onQuiet(gen, seq uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen || seq != d.quietSeq {
		d.mu.Unlock()
		return
	}
	call := d.flushLocked()
	d.mu.Unlock()
	if call != nil {
		call()
	}
}

func (d *Debouncer[T]) onMaxWait(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	call := d.flushLocked()
	d.mu.Unlock()
	if call != nil {
		call()
	}
}

// flushLocked ends the burst and returns the trailing invocation to
// perform, if any. The caller must hold d.mu and must run the returned
// function after releasing it.
func (d *Debouncer[T]) flushLocked() func() {
	fire := d.trailingPending
	args := d.lastArgs
	d.endBurstLocked()
	if !fire {
		return nil
	}
	fn := d.fn
	return func() { fn(args) }
}

func (d *Debouncer[T]) endBurstLocked() {
	d.gen++
	d.pending = false
	d.trailingPending = false
	if d.quietTimer != nil {
		d.quietTimer.Stop()
		d.quietTimer = nil
	}
	if d.maxTimer != nil {
		d.maxTimer.Stop()
		d.maxTimer = nil
	}
}

// Flush fires any pending trailing invocation immediately and ends the
// burst.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	call := d.flushLocked()
	d.mu.Unlock()
	if call != nil {
		call()
	}
}

// Cancel drops any pending invocation. Safe to call when nothing is
// pending; a timer that has already begun firing observes the
// cancellation and does nothing.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	if d.pending {
		d.endBurstLocked()
	}
	d.mu.Unlock()
}

// Stop cancels any pending invocation and retires the debouncer; further
// calls are ignored. Idempotent.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	if d.pending {
		d.endBurstLocked()
	}
	d.stopped = true
	d.mu.Unlock()
}

// Pending reports whether a burst is in progress.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
