package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authsession/pkg/backend"
	"github.com/dmitrymomot/authsession/pkg/credential"
	"github.com/dmitrymomot/authsession/pkg/heartbeat"
	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/pg"
	"github.com/dmitrymomot/authsession/pkg/redis"
	"github.com/dmitrymomot/authsession/pkg/requestid"
	"github.com/dmitrymomot/authsession/pkg/session"
	"github.com/dmitrymomot/authsession/pkg/validator"
)

// runtime holds the wired components of one command invocation.
type runtime struct {
	cfg        Config
	log        *slog.Logger
	store      credential.Store
	client     *backend.Client
	heartbeats *heartbeat.Scheduler
	session    *session.Manager
	redis      *goredis.Client
	postgres   *pgxpool.Pool
}

func newLogger(cfg Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.AppEnv, "authsession"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
}

// healthchecks returns checks for the external store, if any.
func (rt *runtime) healthchecks() []func(context.Context) error {
	var checks []func(context.Context) error
	if rt.redis != nil {
		checks = append(checks, redis.Healthcheck(rt.redis))
	}
	if rt.postgres != nil {
		checks = append(checks, pg.Healthcheck(rt.postgres))
	}
	return checks
}

func setup(ctx context.Context, cfg Config, log *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log}

	var storeOpts []credential.Option
	switch cfg.Credential.Driver {
	case credential.DriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rt.redis = client
		storeOpts = append(storeOpts, credential.WithRedisClient(client))
	case credential.DriverPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		rt.postgres = pool
		if err := pg.Migrate(ctx, pool, cfg.Postgres, credential.Migrations, credential.MigrationsDir, log); err != nil {
			_ = rt.Close()
			return nil, err
		}
		storeOpts = append(storeOpts, credential.WithPostgres(pool))
	}

	store, err := credential.New(cfg.Credential, storeOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.store = store

	rt.client, err = backend.New(cfg.Backend)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	v, err := validator.New(rt.client, validator.WithLogger(log))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.heartbeats, err = heartbeat.NewFromConfig(cfg.Heartbeat, rt.client, heartbeat.WithLogger(log))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.session, err = session.NewFromConfig(cfg.Session, store, v,
		session.WithObserver(rt.heartbeats),
		session.WithLogger(log),
	)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	return rt, nil
}

// Close releases components in reverse dependency order. The session is
// closed before the scheduler so no transition can restart heartbeats.
func (rt *runtime) Close() error {
	var errs []error
	if rt.session != nil {
		errs = append(errs, rt.session.Close())
	}
	if rt.heartbeats != nil {
		errs = append(errs, rt.heartbeats.Close())
	}
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.postgres != nil {
		rt.postgres.Close()
	}
	return errors.Join(errs...)
}
