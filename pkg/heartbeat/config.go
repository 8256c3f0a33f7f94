package heartbeat

import "time"

// Config holds heartbeat settings.
type Config struct {
	Interval    time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"60s"`
	SendTimeout time.Duration `env:"HEARTBEAT_SEND_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns default heartbeat configuration
func DefaultConfig() Config {
	return Config{
		Interval:    60 * time.Second,
		SendTimeout: 10 * time.Second,
	}
}

// NewFromConfig creates a Scheduler applying cfg before opts.
func NewFromConfig(cfg Config, sender Sender, opts ...Option) (*Scheduler, error) {
	base := []Option{
		WithInterval(cfg.Interval),
		WithSendTimeout(cfg.SendTimeout),
	}
	return NewScheduler(sender, append(base, opts...)...)
}
