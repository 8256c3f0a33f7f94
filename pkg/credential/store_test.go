package credential_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authsession/pkg/credential"
	"github.com/dmitrymomot/authsession/pkg/secrets"
)

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store credential.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store returns not found", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "token-1"))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "token-1", got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "token-1"))
		require.NoError(t, store.Save(ctx, "token-2"))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "token-2", got)
	})

	t.Run("save is idempotent", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "token-3"))
		require.NoError(t, store.Save(ctx, "token-3"))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "token-3", got)
	})

	t.Run("empty credential rejected", func(t *testing.T) {
		assert.ErrorIs(t, store.Save(ctx, ""), credential.ErrEmptyCredential)
	})

	t.Run("clear removes and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "token-4"))
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storeContract(t, credential.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "credential")
	store := credential.NewFileStore(path)
	storeContract(t, store)

	ctx := context.Background()

	t.Run("file is private", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "secret"))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("survives a new store instance", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "persisted"))
		got, err := credential.NewFileStore(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "persisted", got)
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("  padded\n"), 0o600))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "padded", got)
	})

	t.Run("blank file is absent", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "clean"))
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestEncryptedStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	sealer, err := secrets.NewSealer(key, "test")
	require.NoError(t, err)

	inner := credential.NewMemoryStore()
	store := credential.NewEncryptedStore(inner, sealer)
	storeContract(t, store)

	t.Run("inner store never sees plaintext", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "plain-token"))
		raw, err := inner.Load(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, "plain-token", raw)
		assert.NotContains(t, raw, "plain-token")
	})

	t.Run("undecryptable value reports corrupted", func(t *testing.T) {
		require.NoError(t, inner.Save(ctx, "not-sealed"))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, credential.ErrCorrupted)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("memory driver", func(t *testing.T) {
		store, err := credential.New(credential.Config{Driver: credential.DriverMemory})
		require.NoError(t, err)
		assert.IsType(t, &credential.MemoryStore{}, store)
	})

	t.Run("file driver", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cred")
		store, err := credential.New(credential.Config{Driver: credential.DriverFile, FilePath: path})
		require.NoError(t, err)
		fs, ok := store.(*credential.FileStore)
		require.True(t, ok)
		assert.Equal(t, path, fs.Path())
	})

	t.Run("redis driver requires client", func(t *testing.T) {
		_, err := credential.New(credential.Config{Driver: credential.DriverRedis})
		assert.ErrorIs(t, err, credential.ErrRedisClientRequired)
	})

	t.Run("postgres driver requires database", func(t *testing.T) {
		_, err := credential.New(credential.Config{Driver: credential.DriverPostgres})
		assert.ErrorIs(t, err, credential.ErrPostgresRequired)
	})

	t.Run("postgres driver", func(t *testing.T) {
		store, err := credential.New(
			credential.Config{Driver: credential.DriverPostgres, PostgresKey: "ci"},
			credential.WithPostgres(newFakeDB()),
		)
		require.NoError(t, err)
		ps, ok := store.(*credential.PostgresStore)
		require.True(t, ok)
		assert.Equal(t, "ci", ps.Key())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := credential.New(credential.Config{Driver: "etcd"})
		assert.ErrorIs(t, err, credential.ErrUnknownDriver)
	})

	t.Run("encryption key wraps the driver", func(t *testing.T) {
		key, err := secrets.GenerateKey()
		require.NoError(t, err)
		store, err := credential.New(credential.Config{
			Driver:        credential.DriverMemory,
			EncryptionKey: secrets.EncodeKey(key),
		})
		require.NoError(t, err)
		assert.IsType(t, &credential.EncryptedStore{}, store)
		storeContract(t, store)
	})

	t.Run("invalid encryption key", func(t *testing.T) {
		_, err := credential.New(credential.Config{Driver: credential.DriverMemory, EncryptionKey: "short"})
		assert.ErrorIs(t, err, secrets.ErrInvalidKey)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := credential.DefaultConfig()
	assert.Equal(t, credential.DriverFile, cfg.Driver)
	assert.Equal(t, credential.DefaultRedisKey, cfg.RedisKey)
	assert.Equal(t, credential.DefaultPostgresKey, cfg.PostgresKey)
}
