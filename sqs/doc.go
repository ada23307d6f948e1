// Package sqs provides a log appender that sends every log event as a message
// to an AWS SQS queue.
//
// Events are encoded as JSON by default and sent with SendMessage on a
// bounded pool of goroutines. Standard and FIFO queues are both supported.
// For FIFO queues every message uses the same MessageGroupId, which keeps
// log messages in order, and a random MessageDeduplicationId.
//
// Create an appender with [New] and start it with [Appender.Start]:
//
//	app := sqs.New("logs.fifo", logger,
//	    sqs.WithAWSConfig(&awsCfg),
//	    sqs.WithAsyncParent(true),
//	)
//	if err := app.Start(ctx); err != nil {
//	    return err
//	}
//	defer app.Stop(ctx)
//
//	log := slog.New(app.Handler(nil))
//
// # Configuration
//
// [Appender] accepts functional options that are passed to the constructor
// and validated by [Appender.Start]. See the With* functions for available
// settings and their defaults.
package sqs
