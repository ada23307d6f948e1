package sqs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/internal/executor"
	"github.com/slackmgr/types"
)

// ErrNotConnected is returned by Append when the queue is not open, typically
// because the appender was stopped concurrently.
var ErrNotConnected = errors.New("SQS queue is not open")

type sqsClient interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type queue struct {
	client sqsClient
	url    string
	pool   *executor.Pool
}

// client is the [appender.Writer] that sends one message per event.
type client struct {
	queueName string
	fifo      bool
	opts      *Options
	logger    types.Logger
	counters  *appender.Counters
	queue     atomic.Pointer[queue]
}

func (c *client) Start(ctx context.Context) error {
	api := c.opts.sqsClient

	// Use injected client if provided (for testing), otherwise create real client
	if api == nil {
		awsCfg, err := c.loadAWSConfig(ctx)
		if err != nil {
			return err
		}

		api = sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			o.Retryer = retry.AddWithMaxBackoffDelay(o.Retryer, c.opts.sqsAPIMaxRetryBackoffDelay)
			o.Retryer = retry.AddWithMaxAttempts(o.Retryer, c.opts.sqsAPIMaxRetryAttempts)
		})
	}

	resp, err := api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(c.queueName)})
	if err != nil {
		return fmt.Errorf("failed to get SQS queue URL for %s: %w", c.queueName, err)
	}

	c.queue.Store(&queue{
		client: api,
		url:    aws.ToString(resp.QueueUrl),
		pool:   executor.NewPool(c.opts.name, c.opts.threadPoolSize, c.logger),
	})

	c.logger.WithField("queue_url", aws.ToString(resp.QueueUrl)).Debug("SQS queue URL resolved")

	return nil
}

func (c *client) Stop(_ context.Context) error {
	q := c.queue.Swap(nil)
	if q == nil {
		return nil
	}

	q.pool.Shutdown(c.opts.maxFlushTime)

	return nil
}

// Write sends payload as the message body. FIFO queues get the configured
// message group ID and a random deduplication ID, so identical events are
// never deduplicated.
func (c *client) Write(ctx context.Context, event appender.Event, payload string) error {
	if payload == "" {
		return errors.New("body cannot be empty")
	}

	q := c.queue.Load()
	if q == nil {
		return ErrNotConnected
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    &q.url,
		MessageBody: &payload,
	}

	if c.fifo {
		input.MessageGroupId = aws.String(c.opts.messageGroupID)
		input.MessageDeduplicationId = aws.String(uuid.NewString())
	}

	err := q.pool.Deliver(executor.Delivery{
		Send: func() error {
			_, err := q.client.SendMessage(context.WithoutCancel(ctx), input)
			return err
		},
		Message:   fmt.Sprintf("Appender '%s' failed to send logging event '%s' to SQS queue '%s'", c.opts.name, event, c.queueName),
		OnSuccess: c.counters.IncSent,
		OnError: func(err error) {
			c.counters.IncFailed()

			if c.opts.failureHook != nil {
				c.opts.failureHook(event, err)
			}
		},
	}, !c.opts.asyncParent, c.opts.maxFlushTime)
	if err != nil {
		return fmt.Errorf("failed to submit logging event to SQS queue %s: %w", c.queueName, err)
	}

	return nil
}

func (c *client) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	if c.opts.awsCfg != nil {
		return *c.opts.awsCfg, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsCfg, nil
}

func isFifo(queueName string) bool {
	return strings.HasSuffix(queueName, ".fifo")
}
