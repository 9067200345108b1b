// Package logger builds the process-wide *slog.Logger.
//
// Every logger produced here wraps its handler in a LogHandlerDecorator so that
// request-scoped values (request id, user id) registered as ContextExtractors are
// attached to each record logged with a context:
//
//	log := logger.New(logger.Config{Level: "debug"}, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "image stored", slog.String("hash", hash))
//
// NewWithSentry additionally forwards warnings and errors to Sentry when a DSN is
// configured and silently falls back to stdout otherwise, so the same code path
// runs in development and production.
//
// NewNope returns a logger that discards everything. It is the default for
// components constructed without a logger.
package logger
