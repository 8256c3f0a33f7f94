// Package config fills configuration structs from the process environment.
//
// Every authsession package that reads settings declares a Config struct with
// `env`/`envDefault` tags (caarlos0/env/v11) and a DefaultConfig helper for
// callers that construct values by hand. Load parses such a struct:
//
//	var cfg heartbeat.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// The `.env` file in the working directory, when present, is applied once
// before the first parse (joho/godotenv). LoadEnv applies additional files; a
// variable already present in the environment is never overridden.
//
// Parsed values are cached per struct type for the life of the process, so
// repeated Load calls are cheap and always return the same snapshot. A failed
// parse is not cached. Tests that change the environment call ResetCache
// before loading again.
//
// MustLoad panics instead of returning an error.
//
// Errors: ErrParsingConfig, ErrConfigNotLoaded, ErrNilPointer and
// ErrLoadingEnvFile, all comparable with errors.Is.
package config
