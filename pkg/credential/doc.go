// Package credential persists the opaque bearer credential of a client
// session so it survives process restarts.
//
// Store is a durable cell holding at most one value. Save overwrites, Load
// returns ErrNotFound when the cell is empty and Clear is idempotent. The
// credential is never parsed.
//
// Implementations:
//
//   - FileStore: a 0600 file, replaced atomically on every Save (default).
//   - MemoryStore: process memory only.
//   - RedisStore: one redis key, for clients sharing a session across processes.
//   - PostgresStore: one row of authsession_credentials; the goose schema is
//     embedded as Migrations.
//   - EncryptedStore: a decorator sealing the value with pkg/secrets before it
//     reaches another Store.
//
// New assembles one of them from Config, which pkg/config fills from the
// environment:
//
//	var cfg credential.Config
//	config.MustLoad(&cfg)
//	store, err := credential.New(cfg, credential.WithRedisClient(client))
//
// Only the session manager writes to the Store.
package credential
