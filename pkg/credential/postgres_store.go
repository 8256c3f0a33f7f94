package credential

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations holds the goose schema for PostgresStore, rooted at MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DefaultPostgresKey names the row used by PostgresStore unless WithRowKey overrides it.
const DefaultPostgresKey = "default"

const (
	upsertCredentialSQL = `INSERT INTO authsession_credentials (key, credential, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET credential = EXCLUDED.credential, updated_at = now()`
	selectCredentialSQL = `SELECT credential FROM authsession_credentials WHERE key = $1`
	deleteCredentialSQL = `DELETE FROM authsession_credentials WHERE key = $1`
)

// PostgresDB is the subset of *pgxpool.Pool used by PostgresStore.
type PostgresDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the credential in one row of authsession_credentials.
// Apply Migrations before use.
type PostgresStore struct {
	db  PostgresDB
	key string
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithRowKey overrides the row key. Empty keys are ignored.
func WithRowKey(key string) PostgresOption {
	return func(s *PostgresStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewPostgresStore wraps a pgx pool or connection.
func NewPostgresStore(db PostgresDB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, key: DefaultPostgresKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the row key holding the credential.
func (s *PostgresStore) Key() string {
	return s.key
}

func (s *PostgresStore) Save(ctx context.Context, credential string) error {
	if credential == "" {
		return ErrEmptyCredential
	}
	if _, err := s.db.Exec(ctx, upsertCredentialSQL, s.key, credential); err != nil {
		return fmt.Errorf("postgres save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (string, error) {
	var credential string
	err := s.db.QueryRow(ctx, selectCredentialSQL, s.key).Scan(&credential)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres load credential: %w", err)
	}
	if credential == "" {
		return "", ErrNotFound
	}
	return credential, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, deleteCredentialSQL, s.key); err != nil {
		return fmt.Errorf("postgres delete credential: %w", err)
	}
	return nil
}
