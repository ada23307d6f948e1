package dynamodb

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/slackmgr/appenders/appender"
)

const (
	// DefaultName is the appender name used in diagnostics unless [WithName]
	// is given.
	DefaultName = "dynamodb"

	// DefaultPrimaryKey is the attribute that receives the generated item ID.
	DefaultPrimaryKey = "Id"

	// DefaultMaxPayloadSize is 384 KiB, leaving headroom below the 400 KB
	// DynamoDB item size limit for the primary key and TTL attributes. The
	// figure 384 is historically given without a unit; read as bytes it
	// would drop nearly every event, so it is taken as KiB.
	DefaultMaxPayloadSize = 384 * 1024

	// DefaultThreadPoolSize is the maximum number of concurrent PutItem calls.
	DefaultThreadPoolSize = 20

	// DefaultMaxFlushTime bounds both the per-event wait and the drain on stop.
	DefaultMaxFlushTime = 3 * time.Second
)

// Option is a functional option for configuring an [Appender].
type Option func(*Options)

// Options holds the configuration for an [Appender]. Use [Option] functions
// (such as [WithPrimaryKey] or [WithMaxFlushTime]) to customise the defaults.
type Options struct {
	name            string
	primaryKey      string
	maxPayloadSize  int
	threadPoolSize  int
	maxFlushTime    time.Duration
	asyncParent     bool
	encoder         appender.Encoder[appender.Event]
	converter       appender.Converter
	charset         string
	dynamoDBAPI     API
	awsCfg          *aws.Config
	endpoint        string
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
	timeToLive      time.Duration
	validateTable   bool
	failureHook     appender.FailureHook
	clock           func() time.Time
}

func newOptions() *Options {
	return &Options{
		name:           DefaultName,
		primaryKey:     DefaultPrimaryKey,
		maxPayloadSize: DefaultMaxPayloadSize,
		threadPoolSize: DefaultThreadPoolSize,
		maxFlushTime:   DefaultMaxFlushTime,
		clock:          time.Now,
	}
}

func (o *Options) validate() error {
	if o.name == "" {
		return errors.New("name must not be empty")
	}

	if o.primaryKey == "" {
		return errors.New("primary key must not be empty")
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

	if o.timeToLive < 0 {
		return errors.New("time to live must not be negative")
	}

	if (o.accessKeyID == "") != (o.secretAccessKey == "") {
		return errors.New("static credentials require both an access key ID and a secret access key")
	}

	if o.clock == nil {
		return errors.New("clock must not be nil")
	}

	return nil
}

func (o *Options) stringConverter() appender.Converter {
	if o.converter != nil {
		return o.converter
	}

	return appender.StringConverter{Charset: o.charset}
}

// WithName sets the appender name used in log messages. The default is
// [DefaultName].
func WithName(name string) Option {
	return func(o *Options) {
		o.name = name
	}
}

// WithPrimaryKey sets the attribute that receives the generated item ID. It
// must match the hash key of the table. The default is [DefaultPrimaryKey].
func WithPrimaryKey(name string) Option {
	return func(o *Options) {
		o.primaryKey = name
	}
}

// WithMaxPayloadSize sets the largest encoded event, in bytes, that is sent.
// Larger events are dropped. Zero disables the check. The default is
// [DefaultMaxPayloadSize].
func WithMaxPayloadSize(n int) Option {
	return func(o *Options) {
		o.maxPayloadSize = n
	}
}

// WithThreadPoolSize sets the maximum number of concurrent PutItem calls. The
// default is [DefaultThreadPoolSize].
func WithThreadPoolSize(n int) Option {
	return func(o *Options) {
		o.threadPoolSize = n
	}
}

// WithMaxFlushTime sets how long Append waits for a write to complete, and how
// long Stop waits for outstanding writes. The default is [DefaultMaxFlushTime].
func WithMaxFlushTime(d time.Duration) Option {
	return func(o *Options) {
		o.maxFlushTime = d
	}
}

// WithAsyncParent makes Append return as soon as the write is submitted,
// without waiting for it to complete. Use this when the caller already logs
// asynchronously.
func WithAsyncParent(async bool) Option {
	return func(o *Options) {
		o.asyncParent = async
	}
}

// WithEncoder sets the event encoder. It must produce a JSON object. The
// default is a [jsonenc.Encoder] with capitalized field names.
func WithEncoder(enc appender.Encoder[appender.Event]) Option {
	return func(o *Options) {
		o.encoder = enc
	}
}

// WithConverter sets the payload converter, overriding [WithCharset].
func WithConverter(c appender.Converter) Option {
	return func(o *Options) {
		o.converter = c
	}
}

// WithCharset sets the IANA charset of the encoded bytes. The default is UTF-8.
func WithCharset(name string) Option {
	return func(o *Options) {
		o.charset = name
	}
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests. The
// AWS configuration is not loaded when an API is supplied.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.dynamoDBAPI = api
	}
}

// WithAWSConfig uses cfg instead of loading the default AWS configuration. A
// non-empty region passed to [New] overrides the region of cfg.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(o *Options) {
		o.awsCfg = cfg
	}
}

// WithEndpoint sets a custom DynamoDB endpoint, such as DynamoDB Local.
func WithEndpoint(url string) Option {
	return func(o *Options) {
		o.endpoint = url
	}
}

// WithStaticCredentials uses a fixed access key instead of the default
// credential chain. sessionToken may be empty.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(o *Options) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
		o.sessionToken = sessionToken
	}
}

// WithTimeToLive adds a [TTLAttr] attribute to every item, set to the current
// time plus d as a Unix timestamp. The table must have TTL enabled on that
// attribute for items to expire. Zero, the default, disables it.
func WithTimeToLive(d time.Duration) Option {
	return func(o *Options) {
		o.timeToLive = d
	}
}

// WithTableValidation makes Start verify that the table exists, is active and
// has a hash key matching the primary key.
func WithTableValidation(validate bool) Option {
	return func(o *Options) {
		o.validateTable = validate
	}
}

// WithFailureHook registers a function called for every event whose write to
// DynamoDB failed. It runs on a worker goroutine.
func WithFailureHook(hook appender.FailureHook) Option {
	return func(o *Options) {
		o.failureHook = hook
	}
}

// WithClock sets a custom clock function used when computing TTL values.
// Defaults to [time.Now]. This is useful for controlling time in tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.clock = clock
	}
}
