package broadcast

import "errors"

// ErrClosed is returned by Broadcast after Close.
var ErrClosed = errors.New("broadcast.closed")
