package heartbeat

import (
	"log/slog"
	"time"
)

// Result reports the outcome of one heartbeat send.
type Result struct {
	Err      error
	Duration time.Duration
	At       time.Time
}

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the time between heartbeats.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSendTimeout bounds each heartbeat request.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithResultHook registers fn to receive every send result. fn runs on the
// send goroutine and must not block.
func WithResultHook(fn func(Result)) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}
