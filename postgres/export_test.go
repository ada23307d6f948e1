package postgres

import "context"

// Export internal symbols for testing.
// This file is only compiled during testing.

var (
	ExportValidateTableName = validateTableName

	ExportValidate = func(opts ...Option) error {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.validate()
	}

	ExportConnectionString = func(opts ...Option) string {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.connectionString()
	}

	ExportCreateStatements = func(opts ...Option) []string {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.createStatements()
	}

	ExportVerifyDatabaseSchema = func(opts ...Option) func(map[string]*dbRow) error {
		o := newOptions()
		for _, opt := range opts {
			opt(o)
		}

		return o.verifyCurrentDatabaseVersion
	}
)

// DBRow exports the internal dbRow type for testing.
type DBRow = dbRow

// Pool exports the internal pool interface for testing.
type Pool = pool

// SetPool sets the connection pool for testing purposes. Start uses it
// instead of connecting.
func (a *Appender) SetPool(p Pool) {
	a.client.injected = p
}

// HasActiveTTLCleanup returns true if the background TTL cleanup goroutine is running.
func (a *Appender) HasActiveTTLCleanup() bool {
	s := a.client.session.Load()
	return s != nil && s.cancelTTL != nil
}

// DeleteExpiredRows runs one TTL cleanup pass on p.
func (a *Appender) DeleteExpiredRows(ctx context.Context, p Pool) {
	a.client.deleteExpiredRows(ctx, p)
}

// DropTable drops the log events table.
func (a *Appender) DropTable(ctx context.Context) error {
	s := a.client.session.Load()
	if s == nil {
		return ErrNotConnected
	}

	for _, sql := range a.opts.dropStatements() {
		if _, err := s.conn.Exec(ctx, sql); err != nil {
			return err
		}
	}

	return nil
}
