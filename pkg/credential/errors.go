package credential

import "errors"

var (
	// ErrNotFound indicates no credential is persisted
	ErrNotFound = errors.New("credential.not_found")

	// ErrEmptyCredential indicates an attempt to save an empty credential
	ErrEmptyCredential = errors.New("credential.empty")

	// ErrCorrupted indicates a persisted value exists but cannot be decoded
	ErrCorrupted = errors.New("credential.corrupted")

	// ErrUnknownDriver indicates Config.Driver names no known store
	ErrUnknownDriver = errors.New("credential.unknown_driver")

	// ErrRedisClientRequired indicates the redis driver was selected without a client
	ErrRedisClientRequired = errors.New("credential.redis_client_required")

	// ErrPostgresRequired indicates the postgres driver was selected without a database
	ErrPostgresRequired = errors.New("credential.postgres_required")
)
