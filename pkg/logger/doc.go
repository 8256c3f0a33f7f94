// Package logger builds the *slog.Logger shared by the session components.
//
// New takes functional options. WithEnvironment picks a preset from APP_ENV:
// production and staging log JSON at info, anything else logs text at debug.
// Every preset tags records with "service" and "env". WithLevelName applies a
// LOG_LEVEL override on top of the preset.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "authsession"),
//	    logger.WithLevelName(cfg.LogLevel),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// ContextExtractor callbacks run on every record and add attributes pulled
// from the record's context, such as the request id of a heartbeat.
//
// attr.go keeps attribute names consistent across packages: State,
// Transition, Attempt and StatusCode for session events, Error and Errors
// which are dropped when the error is nil, and Credential, which logs a short
// SHA-256 fingerprint instead of the credential itself.
package logger
