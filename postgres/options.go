package postgres

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/slackmgr/appenders/appender"
)

// validIdentifier matches valid PostgreSQL unquoted identifiers.
// Must start with letter or underscore, followed by letters, digits, or underscores.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// LogEventModelVersion is written to the version column of every row.
const LogEventModelVersion = 1

// SSLMode represents PostgreSQL SSL connection modes.
type SSLMode string

const (
	SSLModeDisable    SSLMode = "disable"     // No SSL
	SSLModeAllow      SSLMode = "allow"       // Try non-SSL first, then SSL
	SSLModePrefer     SSLMode = "prefer"      // Try SSL first, then non-SSL (default)
	SSLModeRequire    SSLMode = "require"     // Only SSL (no certificate verification)
	SSLModeVerifyCA   SSLMode = "verify-ca"   // SSL with CA verification
	SSLModeVerifyFull SSLMode = "verify-full" // SSL with CA and hostname verification
)

// Option is a functional option for configuring an Appender.
type Option func(*options)

type options struct {
	host                            string
	port                            int
	user                            string
	password                        string
	database                        string
	sslMode                         SSLMode
	poolMaxConnections              *int32
	poolMinConnections              *int32
	poolMinIdleConnections          *int32
	poolMaxConnectionLifetime       *time.Duration
	poolMaxConnectionIdleTime       *time.Duration
	poolHealthCheckPeriod           *time.Duration
	poolMaxConnectionLifetimeJitter *time.Duration
	table                           string
	timeToLive                      time.Duration
	ttlCleanupInterval              *time.Duration
	skipSchemaValidation            bool
	name                            string
	maxPayloadSize                  int
	threadPoolSize                  int
	maxFlushTime                    time.Duration
	asyncParent                     bool
	encoder                         appender.Encoder[appender.Event]
	failureHook                     appender.FailureHook
	clock                           func() time.Time
}

func newOptions() *options {
	defaultCleanupInterval := time.Hour

	return &options{
		host:               "localhost",
		port:               5432,
		sslMode:            SSLModePrefer,
		table:              "log_events",
		ttlCleanupInterval: &defaultCleanupInterval,
		name:               "postgres",
		maxPayloadSize:     1024 * 1024,
		threadPoolSize:     4,
		maxFlushTime:       3 * time.Second,
		clock:              time.Now,
	}
}

func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

func WithUser(user string) Option {
	return func(o *options) { o.user = user }
}

func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

func WithDatabase(database string) Option {
	return func(o *options) { o.database = database }
}

func WithSSLMode(mode SSLMode) Option {
	return func(o *options) { o.sslMode = mode }
}

func WithPoolMaxConnections(n int32) Option {
	return func(o *options) { o.poolMaxConnections = &n }
}

func WithPoolMinConnections(n int32) Option {
	return func(o *options) { o.poolMinConnections = &n }
}

func WithPoolMinIdleConnections(n int32) Option {
	return func(o *options) { o.poolMinIdleConnections = &n }
}

func WithPoolMaxConnectionLifetime(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionLifetime = &d }
}

func WithPoolMaxConnectionIdleTime(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionIdleTime = &d }
}

func WithPoolHealthCheckPeriod(d time.Duration) Option {
	return func(o *options) { o.poolHealthCheckPeriod = &d }
}

func WithPoolMaxConnectionLifetimeJitter(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionLifetimeJitter = &d }
}

// WithTable sets the table that receives log events. The default is
// "log_events".
func WithTable(name string) Option {
	return func(o *options) { o.table = name }
}

// WithTimeToLive sets how long log events are kept. Rows older than this are
// deleted by the TTL cleanup goroutine. The default, zero, keeps rows forever.
func WithTimeToLive(d time.Duration) Option {
	return func(o *options) { o.timeToLive = d }
}

// WithTTLCleanupInterval sets how often the background goroutine runs to
// physically delete expired rows. Defaults to 1 hour. The duration must be
// greater than zero.
func WithTTLCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.ttlCleanupInterval = &d }
}

// WithTTLCleanupDisabled disables the background TTL cleanup goroutine.
// Useful in tests or environments that handle cleanup externally.
func WithTTLCleanupDisabled() Option {
	return func(o *options) { o.ttlCleanupInterval = nil }
}

// WithSchemaValidationDisabled skips the check of the table columns against
// information_schema on start.
func WithSchemaValidationDisabled() Option {
	return func(o *options) { o.skipSchemaValidation = true }
}

// WithName sets the appender name used in log messages. The default is
// "postgres".
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMaxPayloadSize sets the largest encoded event, in bytes, that is
// written. Zero disables the check. The default is 1 MiB.
func WithMaxPayloadSize(n int) Option {
	return func(o *options) { o.maxPayloadSize = n }
}

// WithThreadPoolSize sets the maximum number of concurrent inserts. The
// default is 4, matching the smallest default pgxpool size.
func WithThreadPoolSize(n int) Option {
	return func(o *options) { o.threadPoolSize = n }
}

// WithMaxFlushTime sets how long Append waits for an insert to complete, and
// how long Stop waits for outstanding inserts. The default is 3 seconds.
func WithMaxFlushTime(d time.Duration) Option {
	return func(o *options) { o.maxFlushTime = d }
}

// WithAsyncParent makes Append return as soon as the insert is submitted.
func WithAsyncParent(async bool) Option {
	return func(o *options) { o.asyncParent = async }
}

// WithEncoder sets the event encoder. It must produce valid JSON.
func WithEncoder(enc appender.Encoder[appender.Event]) Option {
	return func(o *options) { o.encoder = enc }
}

// WithFailureHook registers a function called for every event whose insert
// failed.
func WithFailureHook(hook appender.FailureHook) Option {
	return func(o *options) { o.failureHook = hook }
}

// WithClock sets a custom clock function used for the created_at and
// expires_at columns. Defaults to [time.Now].
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

type dbRow struct {
	DataType   string
	IsNullable string
}

func (o *options) validate() error {
	if o.port < 1 || o.port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", o.port)
	}

	if o.user == "" {
		return errors.New("user is required")
	}

	if o.database == "" {
		return errors.New("database is required")
	}

	if !o.sslMode.isValid() {
		return fmt.Errorf("invalid SSL mode: %s", o.sslMode)
	}

	if err := validateTableName(o.table); err != nil {
		return fmt.Errorf("invalid log events table name: %w", err)
	}

	if o.timeToLive < 0 {
		return errors.New("time to live must not be negative")
	}

	if o.ttlCleanupInterval != nil && *o.ttlCleanupInterval <= 0 {
		return errors.New("TTL cleanup interval must be positive")
	}

	if o.name == "" {
		return errors.New("name must not be empty")
	}

	if o.maxPayloadSize < 0 {
		return errors.New("max payload size must not be negative")
	}

	if o.threadPoolSize < 1 {
		return errors.New("thread pool size must be at least 1")
	}

	if o.maxFlushTime < 0 {
		return errors.New("max flush time must not be negative")
	}

	if o.clock == nil {
		return errors.New("clock must not be nil")
	}

	return nil
}

func validateTableName(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("table name %q contains invalid characters", name)
	}

	return nil
}

// isValid returns true if the SSL mode is a valid PostgreSQL SSL mode.
func (s SSLMode) isValid() bool {
	switch s {
	case SSLModeDisable, SSLModeAllow, SSLModePrefer, SSLModeRequire, SSLModeVerifyCA, SSLModeVerifyFull:
		return true
	default:
		return false
	}
}

func (o *options) connectionString() string {
	host := net.JoinHostPort(o.host, strconv.Itoa(o.port))

	user := url.QueryEscape(o.user)

	if o.password != "" {
		user += ":" + url.QueryEscape(o.password)
	}

	return fmt.Sprintf("postgres://%s@%s/%s?sslmode=%s", user, host, o.database, o.sslMode)
}

func (o *options) createStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id text PRIMARY KEY, version SMALLINT NOT NULL, payload JSONB NOT NULL, created_at TIMESTAMP WITH TIME ZONE NOT NULL, expires_at TIMESTAMP WITH TIME ZONE NULL);`, o.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s (created_at);`, o.table, o.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_expires_at_idx ON %s (expires_at) WHERE expires_at IS NOT NULL;`, o.table, o.table),
	}
}

func (o *options) dropStatements() []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", o.table),
	}
}

func (o *options) insertStatement() string {
	return fmt.Sprintf("INSERT INTO %s (id, version, payload, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)", o.table)
}

func (o *options) verifyCurrentDatabaseVersion(actualRows map[string]*dbRow) error {
	expectedRows := map[string]*dbRow{
		o.table + ".id":         {DataType: "text", IsNullable: "NO"},
		o.table + ".version":    {DataType: "smallint", IsNullable: "NO"},
		o.table + ".payload":    {DataType: "jsonb", IsNullable: "NO"},
		o.table + ".created_at": {DataType: "timestamp with time zone", IsNullable: "NO"},
		o.table + ".expires_at": {DataType: "timestamp with time zone", IsNullable: "YES"},
	}

	for id, expectedRow := range expectedRows {
		actual, ok := actualRows[id]
		if !ok {
			return fmt.Errorf("expected row '%s' not found in current database schema", id)
		}

		if !strings.EqualFold(actual.DataType, expectedRow.DataType) {
			return fmt.Errorf("data type mismatch for '%s': expected %s, got %s", id, expectedRow.DataType, actual.DataType)
		}

		if !strings.EqualFold(actual.IsNullable, expectedRow.IsNullable) {
			return fmt.Errorf("nullability mismatch for '%s': expected %s, got %s", id, expectedRow.IsNullable, actual.IsNullable)
		}
	}

	return nil
}
