// Package appender implements the encode-then-transmit pipeline shared by the
// log appenders in this module, and the [log/slog] handler that feeds it.
//
// # Pipeline
//
// An [Appender] owns the lifecycle of a single sink. Each call to
// [Appender.Append] encodes the event with an [Encoder], converts the bytes to
// a string payload with a [Converter], enforces the maximum payload size and
// hands the payload to a [Writer]. The Writer is the only sink-specific piece:
// it opens its remote client in Start, transmits one payload per Write and
// releases the client in Stop.
//
// The sink packages (dynamodb, sqs and postgres) each provide a Writer and a
// ready-made Appender wrapper with sensible defaults.
//
// # slog integration
//
// [Handler] adapts any [Sink] to [slog.Handler]:
//
//	app := dynamodb.New("eu-west-1", "AppLogs", logger)
//	if err := app.Start(ctx); err != nil {
//	    return err
//	}
//	defer app.Stop(ctx)
//
//	log := slog.New(appender.NewHandler(app, &appender.HandlerOptions{Level: slog.LevelInfo}))
//	log.Info("boot complete")
//
// The diagnostic logger passed to an appender must not itself write to that
// appender, or failures would feed back into the pipeline.
package appender
