// Package redis connects to the redis server used by the shared credential
// store (credential.RedisStore) and exposes a healthcheck for it.
//
// Connect retries the initial ping according to Config, which is usually
// populated from the environment through pkg/config:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := credential.NewRedisStore(client)
//
// Healthcheck returns a func(context.Context) error suitable for a `status`
// command or a readiness probe.
package redis
