// Package dynamodb provides a log appender that stores every log event as an
// item in a DynamoDB table.
//
// # Overview
//
// Each event is encoded as a JSON object, converted to DynamoDB attributes
// and written with PutItem. The item receives a freshly generated UUID under
// the primary key attribute ("Id" by default), replacing any attribute of the
// same name produced by the encoder. The default encoder is a
// [jsonenc.Encoder] with capitalized field names, so a typical item looks
// like:
//
//	{
//	    "Id":         "0b8f6f2e-4c2a-4a39-9d43-2f6c0c1f6f0e",
//	    "Timestamp":  "2024-01-15T12:00:00.123+0000",
//	    "Level":      "INFO",
//	    "LevelValue": 0,
//	    "Message":    "boot complete"
//	}
//
// # Getting Started
//
// Create an [Appender] with [New], supplying the AWS region, the table name,
// a diagnostic logger and any [Option] values you need:
//
//	app := dynamodb.New("eu-west-1", "AppLogs", logger,
//	    dynamodb.WithMaxFlushTime(time.Second),
//	    dynamodb.WithTableValidation(true),
//	)
//
//	if err := app.Start(ctx); err != nil {
//	    return err
//	}
//	defer app.Stop(ctx)
//
//	log := slog.New(app.Handler(nil))
//	log.Info("boot complete")
//
// By default, Start loads the AWS configuration from the environment and
// checks that credentials can be retrieved. Supply [WithAWSConfig],
// [WithEndpoint] or [WithStaticCredentials] to override it, or [WithAPI] to
// inject a custom or mock implementation.
//
// # Delivery
//
// PutItem calls run on a bounded pool of [WithThreadPoolSize] goroutines.
// Append waits up to [WithMaxFlushTime] for its write to complete; running
// out of time is logged but is not an error, and the write carries on in the
// background. With [WithAsyncParent] Append does not wait at all.
//
// Failed writes are not retried by the appender. They are logged, counted in
// [Appender.Stats] and reported to the [WithFailureHook] function.
//
// # Concurrency
//
// [Appender] is safe for concurrent use by multiple goroutines.
package dynamodb
