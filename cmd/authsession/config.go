package main

import (
	"github.com/dmitrymomot/authsession/pkg/backend"
	"github.com/dmitrymomot/authsession/pkg/config"
	"github.com/dmitrymomot/authsession/pkg/credential"
	"github.com/dmitrymomot/authsession/pkg/heartbeat"
	"github.com/dmitrymomot/authsession/pkg/httpserver"
	"github.com/dmitrymomot/authsession/pkg/pg"
	"github.com/dmitrymomot/authsession/pkg/redis"
	"github.com/dmitrymomot/authsession/pkg/session"
)

// Config is the full process configuration read from the environment.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	Backend    backend.Config
	Credential credential.Config
	Redis      redis.Config
	Postgres   pg.Config
	Session    session.Config
	Heartbeat  heartbeat.Config
	HTTP       httpserver.Config

	// MockCredentials are accepted by the mock-server command.
	MockCredentials []string `env:"MOCK_CREDENTIALS" envSeparator:","`
}

func loadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := config.LoadEnv(envFiles...); err != nil {
			return Config{}, err
		}
	}
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
