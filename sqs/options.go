package sqs

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/slackmgr/appenders/appender"
)

const (
	// DefaultName is the appender name used in diagnostics unless [WithName]
	// is given.
	DefaultName = "sqs"

	// DefaultMessageGroupID is the MessageGroupId of messages sent to FIFO
	// queues.
	DefaultMessageGroupID = "logs"

	// MaxMessageSize is the largest message body accepted by SQS.
	MaxMessageSize = 256 * 1024
)

// Option is a functional option for configuring an [Appender].
// Options are passed to [New] and validated by [Appender.Start].
type Option func(*Options)

// Options holds the resolved configuration for an [Appender].
// All fields are set to sensible defaults by [New]; use With* functions to
// override individual values.
type Options struct {
	name                       string
	maxPayloadSize             int
	threadPoolSize             int
	maxFlushTime               time.Duration
	asyncParent                bool
	encoder                    appender.Encoder[appender.Event]
	charset                    string
	binary                     bool
	messageGroupID             string
	sqsAPIMaxRetryAttempts     int
	sqsAPIMaxRetryBackoffDelay time.Duration
	awsCfg                     *aws.Config
	failureHook                appender.FailureHook
	sqsClient                  sqsClient // Optional: injected SQS client for testing
}

func newOptions() *Options {
	return &Options{
		name:                       DefaultName,
		maxPayloadSize:             MaxMessageSize,
		threadPoolSize:             20,
		maxFlushTime:               3 * time.Second,
		messageGroupID:             DefaultMessageGroupID,
		sqsAPIMaxRetryAttempts:     5,
		sqsAPIMaxRetryBackoffDelay: 10 * time.Second,
	}
}

func (o *Options) validate() error {
	if o.name == "" {
		return errors.New("name must not be empty")
	}

	if o.maxPayloadSize < 1 || o.maxPayloadSize > MaxMessageSize {
		return errors.New("max payload size must be between 1 byte and 256 KB")
	}

	if o.threadPoolSize < 1 {
		return errors.New("thread pool size must be at least 1")
	}

	if o.maxFlushTime < 0 {
		return errors.New("max flush time must not be negative")
	}

	if o.messageGroupID == "" {
		return errors.New("message group ID must not be empty")
	}

	if o.sqsAPIMaxRetryAttempts < 0 || o.sqsAPIMaxRetryAttempts > 10 {
		return errors.New("max SQS API retry attempts must be between 0 and 10")
	}

	if o.sqsAPIMaxRetryBackoffDelay < 1*time.Second || o.sqsAPIMaxRetryBackoffDelay > 30*time.Second {
		return errors.New("max SQS API retry backoff delay must be between 1 and 30 seconds")
	}

	return nil
}

// WithName sets the appender name used in log messages. Default: "sqs".
func WithName(name string) Option {
	return func(o *Options) {
		o.name = name
	}
}

// WithMaxPayloadSize sets the largest message body, in bytes, that is sent.
// Larger events are dropped. Must be between 1 byte and 256 KB.
// Default: 256 KB.
func WithMaxPayloadSize(n int) Option {
	return func(o *Options) {
		o.maxPayloadSize = n
	}
}

// WithThreadPoolSize sets the maximum number of concurrent SendMessage calls.
// Must be at least 1. Default: 20.
func WithThreadPoolSize(n int) Option {
	return func(o *Options) {
		o.threadPoolSize = n
	}
}

// WithMaxFlushTime sets how long Append waits for a message to be sent, and
// how long Stop waits for outstanding messages. Default: 3 seconds.
func WithMaxFlushTime(d time.Duration) Option {
	return func(o *Options) {
		o.maxFlushTime = d
	}
}

// WithAsyncParent makes Append return as soon as the message is submitted.
func WithAsyncParent(async bool) Option {
	return func(o *Options) {
		o.asyncParent = async
	}
}

// WithEncoder sets the event encoder. Default: a [jsonenc.Encoder] with
// lower camel case field names.
func WithEncoder(enc appender.Encoder[appender.Event]) Option {
	return func(o *Options) {
		o.encoder = enc
	}
}

// WithCharset sets the IANA charset of the encoded bytes. Default: UTF-8.
func WithCharset(name string) Option {
	return func(o *Options) {
		o.charset = name
	}
}

// WithBinary sends the encoded bytes base64-encoded, for encoders producing
// binary output.
func WithBinary(binary bool) Option {
	return func(o *Options) {
		o.binary = binary
	}
}

// WithMessageGroupID sets the MessageGroupId used for FIFO queues. All log
// messages share one group, preserving their order. Default: "logs".
func WithMessageGroupID(id string) Option {
	return func(o *Options) {
		o.messageGroupID = id
	}
}

// WithSqsAPIMaxRetryAttempts sets the maximum number of retry attempts for
// failed SQS API calls. Must be between 0 and 10. Default: 5.
func WithSqsAPIMaxRetryAttempts(n int) Option {
	return func(o *Options) {
		o.sqsAPIMaxRetryAttempts = n
	}
}

// WithSqsAPIMaxRetryBackoffDelay sets the maximum backoff delay between
// consecutive SQS API retry attempts. Must be between 1 second and 30 seconds.
// Default: 10 seconds.
func WithSqsAPIMaxRetryBackoffDelay(d time.Duration) Option {
	return func(o *Options) {
		o.sqsAPIMaxRetryBackoffDelay = d
	}
}

// WithAWSConfig sets the AWS configuration used to create the SQS client.
// When omitted, the default configuration is loaded from the environment.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(o *Options) {
		o.awsCfg = cfg
	}
}

// WithFailureHook registers a function called for every event whose message
// could not be sent.
func WithFailureHook(hook appender.FailureHook) Option {
	return func(o *Options) {
		o.failureHook = hook
	}
}

// WithSQSClient replaces the default AWS SQS client with a custom
// implementation of the internal sqsClient interface. This option is
// intended for testing with mock or stub clients.
func WithSQSClient(client sqsClient) Option {
	return func(o *Options) {
		o.sqsClient = client
	}
}
