// Package pubsub provides a log appender that publishes every log event as a
// message to a Google Cloud Pub/Sub topic.
//
// The caller owns the *pubsub.Client:
//
//	psClient, err := pubsub.NewClient(ctx, projectID)
//	...
//	app := pubsubappender.New(psClient, "logs", logger, pubsubappender.WithOrderingKey("api"))
//	if err := app.Start(ctx); err != nil {
//	    return err
//	}
//	defer app.Stop(ctx)
//
// Messages carry the JSON-encoded event as data and event_id, level and
// logger attributes. Publishing is batched by the Pub/Sub client according
// to the publisher thresholds.
package pubsub
