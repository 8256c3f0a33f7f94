// Package pg connects to the postgres database behind the "postgres"
// credential driver.
//
// Connect retries the initial ping according to Config. Migrate applies goose
// migrations from an fs.FS through the pgx stdlib bridge; the credential
// package ships its schema as credential.Migrations:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, credential.Migrations, credential.MigrationsDir, log); err != nil {
//	    return err
//	}
//	store := credential.NewPostgresStore(pool)
//
// Healthcheck returns a func(context.Context) error for readiness checks.
package pg
