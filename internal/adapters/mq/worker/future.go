package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/auge/internal/adapters/mq/queue"
	"github.com/okian/auge/pkg/metrics"
)

// Future is the pending result of an offloaded computation.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved[T any](v T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v, err)
	return f
}

// Resolve completes the future. Only the first call has an effect; it
// reports whether this call won.
func (f *Future[T]) Resolve(v T, err error) bool {
	won := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		won = true
	})
	return won
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future resolves or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Go runs fn on p and returns its future. When p is nil, stopped or its
// queue is full, fn runs inline on the calling goroutine instead.
func Go[T any](ctx context.Context, p *Pool, name string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := NewFuture[T]()
	j := queue.Job{
		Name: name,
		Run:  func(context.Context) { f.Resolve(call(ctx, name, fn)) },
		Cancel: func(err error) {
			var zero T
			f.Resolve(zero, err)
		},
	}
	if p != nil {
		if err := p.Submit(ctx, j); err == nil {
			return f
		}
	}
	metrics.RecordInlineFallback()
	f.Resolve(call(ctx, name, fn))
	return f
}

func call[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("%w: %s: %v", ErrJobPanicked, name, r)
		}
	}()
	return fn(ctx)
}
