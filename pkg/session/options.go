package session

import (
	"context"
	"log/slog"
	"time"
)

// Observer is notified synchronously of every committed transition, after
// the state is visible through Manager.State and before the call that caused
// the transition returns. Observers must not call Login or Logout.
type Observer interface {
	OnStateChange(ctx context.Context, c Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, c Change)

func (f ObserverFunc) OnStateChange(ctx context.Context, c Change) { f(ctx, c) }

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithObserver registers a synchronous transition observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithValidationTimeout bounds the startup validation round-trip.
func WithValidationTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.validationTimeout = d
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber channel capacity.
func WithSubscriberBuffer(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.subscriberBuffer = n
		}
	}
}

// WithClock overrides the time source used for Change timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
