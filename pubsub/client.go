package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/internal/executor"
	"github.com/slackmgr/appenders/jsonenc"
	"github.com/slackmgr/types"
)

// ErrNotConnected is returned by Append when the publisher is not open.
var ErrNotConnected = errors.New("pub/sub publisher is not open")

// Appender publishes log events to a Pub/Sub topic, one message per event.
type Appender struct {
	base   *appender.Appender[appender.Event]
	client *client
	opts   *Options
}

type publisher struct {
	pub  pubsubPublisher
	pool *executor.Pool
}

type client struct {
	gcpClient *pubsub.Client
	topic     string
	opts      *Options
	logger    types.Logger
	counters  *appender.Counters
	publisher atomic.Pointer[publisher]
}

// New creates an Appender publishing to topic through c. The client is owned
// by the caller and is not closed by [Appender.Stop].
func New(c *pubsub.Client, topic string, logger types.Logger, opts ...Option) *Appender {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	logger = appender.LoggerOrDefault(logger).
		WithField("plugin", "pubsub").
		WithField("topic", topic)

	cl := &client{
		gcpClient: c,
		topic:     topic,
		opts:      options,
	}

	base := appender.New(options.name, appender.Writer[appender.Event](cl), logger,
		appender.WithEncoder(options.encoder),
		appender.WithConverter[appender.Event](appender.StringConverter{Charset: options.charset}),
		appender.WithMaxPayloadSize[appender.Event](options.maxPayloadSize),
	)

	cl.logger = base.Logger()
	cl.counters = base.Counters()

	return &Appender{
		base:   base,
		client: cl,
		opts:   options,
	}
}

func (a *Appender) Start(ctx context.Context) error {
	if a.client.topic == "" {
		return errors.New("pub/sub topic cannot be empty")
	}

	if a.client.gcpClient == nil && a.opts.pubsubClient == nil {
		return errors.New("pub/sub client cannot be nil")
	}

	if err := a.opts.validate(); err != nil {
		return fmt.Errorf("invalid pub/sub publisher options: %w", err)
	}

	a.base.SetDefaultEncoder(jsonenc.New(jsonenc.WithTimestampLayout(jsonenc.TimestampLayout)))

	return a.base.Start(ctx)
}

// Stop waits for outstanding messages and stops the publisher, flushing any
// batched messages.
func (a *Appender) Stop(ctx context.Context) error {
	return a.base.Stop(ctx)
}

func (a *Appender) Append(ctx context.Context, event appender.Event) error {
	return a.base.Append(ctx, event)
}

func (a *Appender) Handler(opts *appender.HandlerOptions) *appender.Handler {
	return appender.NewHandler(a, opts)
}

func (a *Appender) Stats() appender.Stats {
	return a.base.Stats()
}

func (a *Appender) Name() string {
	return a.client.topic
}

func (c *client) Start(_ context.Context) error {
	// Use injected client for testing, otherwise wrap the real GCP client.
	api := c.opts.pubsubClient
	if api == nil {
		api = newRealPubSubClient(c.gcpClient)
	}

	pub := api.Publisher(c.topic)

	pub.SetEnableMessageOrdering(c.opts.orderingKey != "")
	pub.SetDelayThreshold(c.opts.publisherDelayThreshold)
	pub.SetCountThreshold(c.opts.publisherCountThreshold)
	pub.SetByteThreshold(c.opts.publisherByteThreshold)

	c.publisher.Store(&publisher{
		pub:  pub,
		pool: executor.NewPool(c.opts.name, c.opts.threadPoolSize, c.logger),
	})

	return nil
}

func (c *client) Stop(_ context.Context) error {
	p := c.publisher.Swap(nil)
	if p == nil {
		return nil
	}

	p.pool.Shutdown(c.opts.maxFlushTime)
	p.pub.Stop()

	return nil
}

// Write publishes payload. Every message carries a random event_id attribute
// so consumers can deduplicate redeliveries.
func (c *client) Write(ctx context.Context, event appender.Event, payload string) error {
	if payload == "" {
		return errors.New("body cannot be empty")
	}

	p := c.publisher.Load()
	if p == nil {
		return ErrNotConnected
	}

	msg := &pubsub.Message{
		Data:        []byte(payload),
		OrderingKey: c.opts.orderingKey,
		Attributes: map[string]string{
			"event_id": uuid.NewString(),
			"level":    event.Level.String(),
		},
	}

	if event.LoggerName != "" {
		msg.Attributes["logger"] = event.LoggerName
	}

	err := p.pool.Deliver(executor.Delivery{
		Send: func() error {
			sendCtx := context.WithoutCancel(ctx)

			if _, err := p.pub.Publish(sendCtx, msg).Get(sendCtx); err != nil {
				if msg.OrderingKey != "" {
					p.pub.ResumePublish(msg.OrderingKey)
				}

				return err
			}

			return nil
		},
		Message:   fmt.Sprintf("Appender '%s' failed to send logging event '%s' to Pub/Sub topic '%s'", c.opts.name, event, c.topic),
		OnSuccess: c.counters.IncSent,
		OnError: func(err error) {
			c.counters.IncFailed()

			if c.opts.failureHook != nil {
				c.opts.failureHook(event, err)
			}
		},
	}, !c.opts.asyncParent, c.opts.maxFlushTime)
	if err != nil {
		return fmt.Errorf("failed to submit logging event to pub/sub topic %s: %w", c.topic, err)
	}

	return nil
}
