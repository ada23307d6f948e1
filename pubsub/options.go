package pubsub

import (
	"errors"
	"time"

	"github.com/slackmgr/appenders/appender"
)

const (
	// DefaultName is the appender name used in diagnostics unless [WithName]
	// is given.
	DefaultName = "pubsub"

	// MaxMessageSize is the largest message data accepted by Pub/Sub.
	MaxMessageSize = 10 * 1000 * 1000
)

type Option func(*Options)

type Options struct {
	name                    string
	maxPayloadSize          int
	threadPoolSize          int
	maxFlushTime            time.Duration
	asyncParent             bool
	encoder                 appender.Encoder[appender.Event]
	charset                 string
	orderingKey             string
	publisherDelayThreshold time.Duration
	publisherCountThreshold int
	publisherByteThreshold  int
	failureHook             appender.FailureHook
	pubsubClient            pubsubClient
}

func newOptions() *Options {
	return &Options{
		name:                    DefaultName,
		maxPayloadSize:          MaxMessageSize,
		threadPoolSize:          20,
		maxFlushTime:            3 * time.Second,
		publisherDelayThreshold: 10 * time.Millisecond,
		publisherCountThreshold: 100,
		publisherByteThreshold:  1e6, // 1 MB
	}
}

func (o *Options) validate() error {
	if o.name == "" {
		return errors.New("name must not be empty")
	}

	if o.maxPayloadSize < 1 || o.maxPayloadSize > MaxMessageSize {
		return errors.New("max payload size must be between 1 byte and 10 MB")
	}

	if o.threadPoolSize < 1 {
		return errors.New("thread pool size must be at least 1")
	}

	if o.maxFlushTime < 0 {
		return errors.New("max flush time must not be negative")
	}

	if o.publisherDelayThreshold < 0 {
		return errors.New("publisher delay threshold must be non-negative")
	}

	if o.publisherCountThreshold <= 0 {
		return errors.New("publisher count threshold must be greater than zero")
	}

	if o.publisherByteThreshold <= 0 {
		return errors.New("publisher byte threshold must be greater than zero")
	}

	return nil
}

func WithName(name string) Option {
	return func(o *Options) {
		o.name = name
	}
}

// WithMaxPayloadSize sets the largest message, in bytes, that is published.
// Larger events are dropped.
func WithMaxPayloadSize(n int) Option {
	return func(o *Options) {
		o.maxPayloadSize = n
	}
}

func WithThreadPoolSize(n int) Option {
	return func(o *Options) {
		o.threadPoolSize = n
	}
}

func WithMaxFlushTime(d time.Duration) Option {
	return func(o *Options) {
		o.maxFlushTime = d
	}
}

func WithAsyncParent(async bool) Option {
	return func(o *Options) {
		o.asyncParent = async
	}
}

func WithEncoder(enc appender.Encoder[appender.Event]) Option {
	return func(o *Options) {
		o.encoder = enc
	}
}

func WithCharset(name string) Option {
	return func(o *Options) {
		o.charset = name
	}
}

// WithOrderingKey enables message ordering and publishes every event with
// the given ordering key. Ordering is disabled by default.
func WithOrderingKey(key string) Option {
	return func(o *Options) {
		o.orderingKey = key
	}
}

func WithPublisherDelayThreshold(d time.Duration) Option {
	return func(o *Options) {
		o.publisherDelayThreshold = d
	}
}

func WithPublisherCountThreshold(n int) Option {
	return func(o *Options) {
		o.publisherCountThreshold = n
	}
}

func WithPublisherByteThreshold(n int) Option {
	return func(o *Options) {
		o.publisherByteThreshold = n
	}
}

func WithFailureHook(hook appender.FailureHook) Option {
	return func(o *Options) {
		o.failureHook = hook
	}
}

// WithPubSubClient sets a custom pubsubClient implementation for testing.
func WithPubSubClient(client pubsubClient) Option {
	return func(o *Options) {
		o.pubsubClient = client
	}
}
