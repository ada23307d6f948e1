// Package postgres provides a log appender that inserts every log event as a
// row in a PostgreSQL table.
//
// It uses pgx v5 with connection pooling (pgxpool) and stores each event as
// JSONB.
//
// # Usage
//
// Create an appender using [New] with functional options, then call
// [Appender.Start] to connect and create the table:
//
//	app := postgres.New(logger,
//	    postgres.WithHost("localhost"),
//	    postgres.WithPort(5432),
//	    postgres.WithUser("postgres"),
//	    postgres.WithPassword("secret"),
//	    postgres.WithDatabase("logs"),
//	    postgres.WithTimeToLive(30*24*time.Hour),
//	)
//
//	if err := app.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Stop(ctx)
//
// # Database Table
//
// [Appender.Start] creates the table if it does not exist (default name
// log_events, configurable via [WithTable]):
//
//	id         text PRIMARY KEY
//	version    smallint NOT NULL
//	payload    jsonb NOT NULL
//	created_at timestamp with time zone NOT NULL
//	expires_at timestamp with time zone NULL
//
// It then queries information_schema.columns and verifies that every
// expected column exists with the correct data type and nullability, unless
// [WithSchemaValidationDisabled] is given.
//
// # Connection Pool
//
// The underlying pgxpool can be tuned with the pool-specific options:
// [WithPoolMaxConnections], [WithPoolMinConnections],
// [WithPoolMinIdleConnections], [WithPoolMaxConnectionLifetime],
// [WithPoolMaxConnectionIdleTime], [WithPoolHealthCheckPeriod], and
// [WithPoolMaxConnectionLifetimeJitter]. Unless [WithPoolMaxConnections] is
// given, the pool allows at least [WithThreadPoolSize] connections.
//
// # TTL and Cleanup
//
// With [WithTimeToLive], every row gets an expiry timestamp. A background
// goroutine periodically deletes expired rows. Its interval defaults to 1
// hour and can be changed with [WithTTLCleanupInterval] or disabled entirely
// with [WithTTLCleanupDisabled].
//
// # SSL
//
// SSL behaviour is controlled by [WithSSLMode] using the [SSLMode] constants
// ([SSLModeDisable], [SSLModeAllow], [SSLModePrefer], [SSLModeRequire],
// [SSLModeVerifyCA], [SSLModeVerifyFull]). The default is [SSLModePrefer].
package postgres
