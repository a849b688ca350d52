package browsing

import (
	"context"
	"sync"
)

// Dispatcher marshals a function onto the Session's goroutine.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// Immediate runs every function inline. Use it only when the caller is
// already on the Session's goroutine.
var Immediate Dispatcher = DispatchFunc(func(fn func()) { fn() })

// Loop is a single goroutine that runs dispatched functions in order.
// The queue is unbounded so Dispatch never blocks, even from inside the loop.
type Loop struct {
	mu       sync.Mutex
	pending  []func()
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a stopped-until-Run loop.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Dispatch queues fn. Functions queued after Stop are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	select {
	case <-l.done:
		l.mu.Unlock()
		return
	default:
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call queues fn and waits for it to run. It returns false if the loop
// stopped first. Calling it from the loop goroutine deadlocks.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	l.Dispatch(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// Run executes queued functions until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// Stop ends Run and drops anything still queued.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		close(l.done)
		l.pending = nil
		l.mu.Unlock()
	})
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
