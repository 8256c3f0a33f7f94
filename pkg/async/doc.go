// Package async runs a computation in its own goroutine and hands back a
// generic Future for its result.
//
// A Future can be awaited (Await, AwaitContext), polled (IsComplete, Done), or
// given completion callbacks with Then. The session manager uses Then to apply
// a validation result as soon as the round-trip finishes without parking a
// goroutine on Await.
//
//	f := async.Async(ctx, cred, func(ctx context.Context, c string) (bool, error) {
//		return check(ctx, c)
//	})
//	f.Then(func(ok bool, err error) {
//		// runs on the worker goroutine
//	})
//
// If ctx is already cancelled the function is not called and the future
// completes with ctx.Err(). A panic inside the function is recovered and
// reported as an error wrapping ErrPanic.
package async
