package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authsession/pkg/secrets"
)

// Store persists at most one opaque credential across process restarts.
type Store interface {
	// Save persists the credential, overwriting any previous value.
	Save(ctx context.Context, credential string) error

	// Load returns the persisted credential or ErrNotFound.
	Load(ctx context.Context) (string, error)

	// Clear removes the persisted credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Store drivers accepted by Config.Driver.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// sealPurpose binds sealed credentials to this use of the encryption key.
const sealPurpose = "authsession/credential/v1"

// Config selects and configures a Store.
type Config struct {
	// Driver is one of "file", "memory", "redis" or "postgres".
	Driver string `env:"CREDENTIAL_STORE" envDefault:"file"`

	// FilePath is the credential file for the file driver.
	// Empty means <user config dir>/authsession/credential.
	FilePath string `env:"CREDENTIAL_FILE"`

	RedisKey string        `env:"CREDENTIAL_REDIS_KEY" envDefault:"authsession:credential"`
	RedisTTL time.Duration `env:"CREDENTIAL_REDIS_TTL" envDefault:"0s"`

	// PostgresKey selects the row of authsession_credentials.
	PostgresKey string `env:"CREDENTIAL_PG_KEY" envDefault:"default"`

	// EncryptionKey is an optional base64 32-byte key. When set, the credential
	// is sealed with AES-GCM before it reaches the driver.
	EncryptionKey string `env:"CREDENTIAL_ENCRYPTION_KEY"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		Driver:      DriverFile,
		RedisKey:    DefaultRedisKey,
		PostgresKey: DefaultPostgresKey,
	}
}

// Option configures New.
type Option func(*factoryOptions)

type factoryOptions struct {
	redisClient redis.UniversalClient
	postgres    PostgresDB
}

// WithRedisClient supplies the client used by the redis driver.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *factoryOptions) {
		o.redisClient = client
	}
}

// WithPostgres supplies the database used by the postgres driver.
func WithPostgres(db PostgresDB) Option {
	return func(o *factoryOptions) {
		o.postgres = db
	}
}

// New builds the Store described by cfg.
func New(cfg Config, opts ...Option) (Store, error) {
	o := &factoryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var store Store
	switch cfg.Driver {
	case DriverFile, "":
		path := cfg.FilePath
		if path == "" {
			var err error
			if path, err = DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		store = NewFileStore(path)
	case DriverMemory:
		store = NewMemoryStore()
	case DriverRedis:
		if o.redisClient == nil {
			return nil, ErrRedisClientRequired
		}
		store = NewRedisStore(o.redisClient, WithKey(cfg.RedisKey), WithTTL(cfg.RedisTTL))
	case DriverPostgres:
		if o.postgres == nil {
			return nil, ErrPostgresRequired
		}
		store = NewPostgresStore(o.postgres, WithRowKey(cfg.PostgresKey))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	if cfg.EncryptionKey == "" {
		return store, nil
	}

	key, err := secrets.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("credential encryption key: %w", err)
	}
	sealer, err := secrets.NewSealer(key, sealPurpose)
	if err != nil {
		return nil, err
	}
	return NewEncryptedStore(store, sealer), nil
}

// DefaultFilePath returns <user config dir>/authsession/credential.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Join(errors.New("resolve user config dir"), err)
	}
	return filepath.Join(dir, "authsession", "credential"), nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*EncryptedStore)(nil)
)
