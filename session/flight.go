package session

import (
	"context"
	"sync"
)

// Flight is a handle on a coordinated call that has been issued and may not have settled yet.
// It settles exactly once; any number of goroutines may wait on it, before or after settlement,
// and all of them observe the same outcome.
type Flight[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFlight[T any]() *Flight[T] {
	return &Flight[T]{done: make(chan struct{})}
}

// Done is closed once the flight has settled.
func (f *Flight[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the outcome is available.
func (f *Flight[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the flight settles or ctx ends. Cancelling ctx only abandons this wait;
// the call itself keeps running.
func (f *Flight[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Flight[T]) settle(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}
