package tindak

import (
	"context"
	"sync"
)

// Future is the promise adaptation of an Action completion. It is completed
// exactly once, either with a value or with an error.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future completes or ctx is cancelled. On completion
// it returns the action's result or its failure verbatim.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the result immediately when the future has completed; ok is
// false while it is still pending.
func (f *Future[T]) TryGet() (value T, err error, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
