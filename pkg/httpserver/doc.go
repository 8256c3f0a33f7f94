// Package httpserver runs an http.Handler until a context is cancelled and
// then shuts it down gracefully. It backs the `authsession mock-server`
// command.
//
//	srv := httpserver.New(httpserver.WithAddr(":8080"), httpserver.WithLogger(log))
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, handler); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run wraps listen errors with ErrStart and shutdown errors with ErrShutdown.
// HealthCheckHandler serves liveness and readiness probes.
package httpserver
