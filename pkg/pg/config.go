package pg

import "time"

// Config describes the postgres database used by the postgres credential driver.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"4"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"1"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts  int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"PG_CONNECT_TIMEOUT" envDefault:"30s"`

	// MigrationsTable stores the applied schema version.
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"authsession_migrations"`
}

// DefaultConfig mirrors the envDefault tags. ConnectionString is left empty.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:      4,
		MaxIdleConns:      1,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     2 * time.Second,
		ConnectTimeout:    30 * time.Second,
		MigrationsTable:   "authsession_migrations",
	}
}
