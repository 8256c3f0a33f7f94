package async

import (
	"context"
	"fmt"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}

	mu        sync.Mutex
	callbacks []func(U, error)
}

// Done returns a channel closed once the computation has finished.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the asynchronous function to complete and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever comes
// first. On ctx expiry it returns ctx.Err(); the computation keeps running.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Then registers fn to run with the result once the future completes. fn runs
// on the goroutine that completed the future, or immediately on the caller's
// goroutine if the future is already complete. Callbacks run in registration
// order.
func (f *Future[U]) Then(fn func(U, error)) *Future[U] {
	f.mu.Lock()
	if !f.IsComplete() {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return f
	}
	f.mu.Unlock()
	fn(f.result, f.err)
	return f
}

func (f *Future[U]) complete(res U, err error) {
	f.mu.Lock()
	f.result, f.err = res, err
	close(f.done)
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(res, err)
	}
}

// Async executes fn in its own goroutine and returns a Future for its result.
// A pre-cancelled ctx completes the future with ctx.Err() without calling fn.
// A panic in fn completes the future with an error wrapping ErrPanic.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		var (
			res U
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				res, err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
			}
			f.complete(res, err)
		}()

		if err = ctx.Err(); err != nil {
			return
		}
		res, err = fn(ctx, param)
	}()

	return f
}
