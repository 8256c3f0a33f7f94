// Package environment carries the application environment (development,
// staging, production) through context.Context and into structured logs.
//
// Parse accepts both full names and the short aliases used in deployment
// manifests:
//
//	env := environment.Parse(os.Getenv("APP_ENV")) // "prod" -> Production
//	ctx = environment.WithContext(ctx, env)
//
// LoggerExtractor plugs the value into logger.WithContextExtractors so every
// record logged with that context gets an "env" attribute.
package environment
