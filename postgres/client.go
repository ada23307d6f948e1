package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/internal/executor"
	"github.com/slackmgr/types"
)

var (
	// ErrNotConnected is returned by Append when the connection pool is not
	// open, typically because the appender was stopped concurrently.
	ErrNotConnected = errors.New("client is not connected")

	// ErrInvalidPayload is returned by Append when the encoded event is not
	// valid JSON.
	ErrInvalidPayload = errors.New("payload is not valid JSON")
)

// pool defines the interface for database operations.
// This interface is satisfied by *pgxpool.Pool and can be mocked for testing.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
	Ping(ctx context.Context) error
}

type session struct {
	conn      pool
	workers   *executor.Pool
	cancelTTL context.CancelFunc
}

// client is the [appender.Writer] that inserts one row per event.
type client struct {
	opts     *options
	logger   types.Logger
	counters *appender.Counters
	injected pool
	session  atomic.Pointer[session]
}

// Start connects, creates the table if needed, validates its schema and
// starts the TTL cleanup goroutine.
func (c *client) Start(ctx context.Context) error {
	conn := c.injected

	if conn == nil {
		var err error

		conn, err = c.connect(ctx)
		if err != nil {
			return err
		}
	}

	if err := c.init(ctx, conn); err != nil {
		conn.Close()
		c.injected = nil

		return err
	}

	s := &session{
		conn:    conn,
		workers: executor.NewPool(c.opts.name, c.opts.threadPoolSize, c.logger),
	}

	if c.opts.ttlCleanupInterval != nil {
		ttlCtx, cancel := context.WithCancel(context.Background())
		s.cancelTTL = cancel

		//nolint:contextcheck // Intentionally using a new context: the TTL goroutine must outlive the Start call.
		go c.runTTLCleanup(ttlCtx, conn)
	}

	c.session.Store(s)

	return nil
}

func (c *client) Stop(_ context.Context) error {
	s := c.session.Swap(nil)
	if s == nil {
		return nil
	}

	if s.cancelTTL != nil {
		s.cancelTTL()
	}

	s.workers.Shutdown(c.opts.maxFlushTime)
	s.conn.Close()

	return nil
}

// Write inserts payload as a new row with a generated ID.
func (c *client) Write(ctx context.Context, event appender.Event, payload string) error {
	s := c.session.Load()
	if s == nil {
		return ErrNotConnected
	}

	if !json.Valid([]byte(payload)) {
		return ErrInvalidPayload
	}

	now := c.opts.clock()

	// A nil expiry keeps the row forever.
	var expiresAt any
	if c.opts.timeToLive > 0 {
		expiresAt = now.Add(c.opts.timeToLive)
	}

	id := uuid.NewString()
	sql := c.opts.insertStatement()

	err := s.workers.Deliver(executor.Delivery{
		Send: func() error {
			_, err := s.conn.Exec(context.WithoutCancel(ctx), sql, id, LogEventModelVersion, payload, now, expiresAt)
			return err
		},
		Message:   fmt.Sprintf("Appender '%s' failed to send logging event '%s' to Postgres table '%s'", c.opts.name, event, c.opts.table),
		OnSuccess: c.counters.IncSent,
		OnError: func(err error) {
			c.counters.IncFailed()

			if c.opts.failureHook != nil {
				c.opts.failureHook(event, err)
			}
		},
	}, !c.opts.asyncParent, c.opts.maxFlushTime)
	if err != nil {
		return fmt.Errorf("failed to submit logging event to Postgres table %s: %w", c.opts.table, err)
	}

	return nil
}

func (c *client) connect(ctx context.Context) (pool, error) {
	config, err := pgxpool.ParseConfig(c.opts.connectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse Postgres db connection string: %w", err)
	}

	if c.opts.poolMaxConnections != nil {
		config.MaxConns = *c.opts.poolMaxConnections
	} else if workers := int32(min(c.opts.threadPoolSize, 1<<16)); config.MaxConns < workers { //nolint:gosec // bounded above
		config.MaxConns = workers
	}

	if c.opts.poolMinConnections != nil {
		config.MinConns = *c.opts.poolMinConnections
	}

	if c.opts.poolMinIdleConnections != nil {
		config.MinIdleConns = *c.opts.poolMinIdleConnections
	}

	if c.opts.poolMaxConnectionLifetime != nil {
		config.MaxConnLifetime = *c.opts.poolMaxConnectionLifetime
	}

	if c.opts.poolMaxConnectionIdleTime != nil {
		config.MaxConnIdleTime = *c.opts.poolMaxConnectionIdleTime
	}

	if c.opts.poolHealthCheckPeriod != nil {
		config.HealthCheckPeriod = *c.opts.poolHealthCheckPeriod
	}

	if c.opts.poolMaxConnectionLifetimeJitter != nil {
		config.MaxConnLifetimeJitter = *c.opts.poolMaxConnectionLifetimeJitter
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new Postgres connection pool: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping Postgres db: %w", err)
	}

	return conn, nil
}

func (c *client) init(ctx context.Context, conn pool) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin init transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.createStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute create statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit init transaction: %w", err)
	}

	if c.opts.skipSchemaValidation {
		return nil
	}

	query := "SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position"

	rows, err := conn.Query(ctx, query, c.opts.table)
	if err != nil {
		return fmt.Errorf("failed to query information schema: %w", err)
	}

	defer rows.Close()

	infoRows := map[string]*dbRow{}

	for rows.Next() {
		var table, column string
		infoRow := &dbRow{}

		if err := rows.Scan(&table, &column, &infoRow.DataType, &infoRow.IsNullable); err != nil {
			return fmt.Errorf("failed to scan row from information schema: %w", err)
		}

		infoRows[table+"."+column] = infoRow
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over rows from information schema: %w", err)
	}

	if err := c.opts.verifyCurrentDatabaseVersion(infoRows); err != nil {
		return fmt.Errorf("failed to verify current database version: %w", err)
	}

	return nil
}

func (c *client) runTTLCleanup(ctx context.Context, conn pool) {
	ticker := time.NewTicker(*c.opts.ttlCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.deleteExpiredRows(ctx, conn)
		}
	}
}

func (c *client) deleteExpiredRows(ctx context.Context, conn pool) {
	tag, err := conn.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < NOW()", c.opts.table))
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Errorf("Failed to delete expired log events: %v", err)
		}
		return
	}

	if n := tag.RowsAffected(); n > 0 {
		c.logger.WithField("rows", n).Debug("Deleted expired log events")
	}
}
