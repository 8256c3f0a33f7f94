package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/authsession/pkg/broadcast"
	"github.com/dmitrymomot/authsession/pkg/httpserver"
	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/mockauth"
	"github.com/dmitrymomot/authsession/pkg/session"
)

const cfgKey = "config"

func newApp() *cli.App {
	return &cli.App{
		Name:     "authsession",
		Usage:    "Keep an authenticated client session alive against a remote authority",
		Version:  fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Metadata: map[string]any{},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "load variables from these .env files before reading the environment",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c.StringSlice("env-file")...)
			if err != nil {
				return err
			}
			c.App.Metadata[cfgKey] = cfg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Restore the stored credential, validate it and print the resulting state",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 30 * time.Second,
						Usage: "how long to wait for validation",
					},
				},
				Action: statusAction,
			},
			{
				Name:      "login",
				Usage:     "Store a freshly issued credential and mark the session authenticated",
				ArgsUsage: "CREDENTIAL",
				Action:    loginAction,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credential",
				Action: logoutAction,
			},
			{
				Name:   "run",
				Usage:  "Restore the session and send heartbeats until interrupted",
				Action: runAction,
			},
			{
				Name:  "mock-server",
				Usage: "Serve an in-memory authority for local development",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "allow",
						Aliases: []string{"a"},
						Usage:   "credential to accept (repeatable)",
					},
					&cli.DurationFlag{
						Name:  "profile-delay",
						Usage: "delay every profile response",
					},
				},
				Action: mockServerAction,
			},
		},
	}
}

func configFrom(c *cli.Context) Config {
	cfg, _ := c.App.Metadata[cfgKey].(Config)
	return cfg
}

func withRuntime(c *cli.Context, fn func(ctx context.Context, rt *runtime) error) error {
	cfg := configFrom(c)
	log := newLogger(cfg)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error("shutdown", logger.Error(err))
		}
	}()
	return fn(ctx, rt)
}

func statusAction(c *cli.Context) error {
	return withRuntime(c, func(ctx context.Context, rt *runtime) error {
		for _, check := range rt.healthchecks() {
			if err := check(ctx); err != nil {
				return err
			}
		}
		rt.session.Start(ctx)

		wctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()
		state, err := rt.session.Wait(wctx)
		if err != nil {
			return fmt.Errorf("waiting for validation: %w", err)
		}
		// status reports only; it must not keep heartbeating.
		rt.heartbeats.Stop()

		_, err = fmt.Fprintln(c.App.Writer, state)
		return err
	})
}

func loginAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("login expects exactly one CREDENTIAL argument", 2)
	}
	return withRuntime(c, func(ctx context.Context, rt *runtime) error {
		if err := rt.session.Login(ctx, c.Args().First()); err != nil {
			return err
		}
		rt.heartbeats.Stop()
		_, err := fmt.Fprintln(c.App.Writer, rt.session.State())
		return err
	})
}

func logoutAction(c *cli.Context) error {
	return withRuntime(c, func(ctx context.Context, rt *runtime) error {
		rt.session.Logout(ctx)
		_, err := fmt.Fprintln(c.App.Writer, rt.session.State())
		return err
	})
}

func runAction(c *cli.Context) error {
	return withRuntime(c, func(ctx context.Context, rt *runtime) error {
		// Subscribe before Start so the first transition is not missed.
		changes := rt.session.Subscribe(ctx)

		rt.log.InfoContext(ctx, "starting session",
			slog.String("authority", rt.cfg.Backend.BaseURL),
			slog.String("client_id", rt.client.ClientID()),
			slog.Duration("heartbeat_interval", rt.cfg.Heartbeat.Interval),
		)
		rt.session.Start(ctx)

		followChanges(ctx, changes, rt.session.Subscribe, c.App.Writer, rt.log)

		stats := rt.heartbeats.Stats()
		rt.log.Info("stopping session",
			logger.State(rt.session.State().String()),
			logger.Group("heartbeats",
				slog.Uint64("dispatched", stats.Dispatched),
				slog.Uint64("sent", stats.Sent),
				slog.Uint64("failed", stats.Failed),
			),
		)
		return nil
	})
}

// followChanges prints the target state of every committed transition until
// ctx is done. A subscription dropped for falling behind is replaced; the
// replayed last change keeps the output current.
func followChanges(
	ctx context.Context,
	changes broadcast.Subscriber[session.Change],
	subscribe func(context.Context) broadcast.Subscriber[session.Change],
	w io.Writer,
	log *slog.Logger,
) {
	defer func() { _ = changes.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-changes.Receive(ctx):
			if !ok {
				if ctx.Err() != nil {
					return
				}
				log.WarnContext(ctx, "state change subscription dropped, resubscribing")
				changes = subscribe(ctx)
				continue
			}
			_, _ = fmt.Fprintln(w, msg.Data.To)
			if msg.Data.To == session.Unauthenticated {
				log.WarnContext(ctx, "session is not authenticated; run `authsession login CREDENTIAL`")
			}
		}
	}
}

func mockServerAction(c *cli.Context) error {
	cfg := configFrom(c)
	log := newLogger(cfg)

	allowed := append(cfg.MockCredentials, c.StringSlice("allow")...)
	auth := mockauth.New(mockauth.WithCredentials(allowed...), mockauth.WithLogger(log))
	if d := c.Duration("profile-delay"); d > 0 {
		auth.SetProfileDelay(d)
	}

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Mount("/", auth.Handler())

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("mock authority ready", slog.Int("credentials", len(allowed)))
	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
}
