package backend

import "time"

// Config describes the remote authority.
type Config struct {
	BaseURL   string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout   time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"API_USER_AGENT" envDefault:"authsession"`

	// ClientID identifies this installation in heartbeats. Generated per
	// process when empty.
	ClientID string `env:"API_CLIENT_ID"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:8080",
		Timeout:   10 * time.Second,
		UserAgent: "authsession",
	}
}
