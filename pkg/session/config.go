package session

import (
	"time"

	"github.com/dmitrymomot/authsession/pkg/credential"
)

// Config holds session manager settings.
type Config struct {
	// ValidationTimeout bounds the startup validation round-trip.
	ValidationTimeout time.Duration `env:"SESSION_VALIDATION_TIMEOUT" envDefault:"15s"`

	// SubscriberBuffer is the per-subscriber channel capacity for Subscribe.
	SubscriberBuffer int `env:"SESSION_SUBSCRIBER_BUFFER" envDefault:"16"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		ValidationTimeout: 15 * time.Second,
		SubscriberBuffer:  16,
	}
}

// NewFromConfig creates a Manager applying cfg before opts.
func NewFromConfig(cfg Config, store credential.Store, v Validator, opts ...Option) (*Manager, error) {
	base := []Option{
		WithValidationTimeout(cfg.ValidationTimeout),
		WithSubscriberBuffer(cfg.SubscriberBuffer),
	}
	return New(store, v, append(base, opts...)...)
}
