package async

import "errors"

// ErrPanic wraps a value recovered from a panicking async function.
var ErrPanic = errors.New("async.panic")
