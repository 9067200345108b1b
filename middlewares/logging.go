package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/pkg/logger"
)

// LoggingConfig configures the access log middleware.
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths map[string]bool
}

// LoggingOption configures LoggingConfig.
type LoggingOption func(*LoggingConfig)

// WithLoggingLogger overrides the logger. Defaults to the App logger.
func WithLoggingLogger(l *slog.Logger) LoggingOption {
	return func(cfg *LoggingConfig) {
		cfg.Logger = l
	}
}

// WithLoggingSkipPaths disables access logging for the given route patterns.
func WithLoggingSkipPaths(patterns ...string) LoggingOption {
	return func(cfg *LoggingConfig) {
		for _, p := range patterns {
			cfg.SkipPaths[p] = true
		}
	}
}

// Logging returns middleware that writes one access-log line per request.
// The status of a failed request is the one the error handler is about to write.
func Logging(opts ...LoggingOption) internal.Middleware {
	cfg := &LoggingConfig{SkipPaths: map[string]bool{}}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if cfg.SkipPaths[c.Route().Pattern] {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status, size := responseStatus(c, err)
			attrs := []slog.Attr{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("route", c.Route().Pattern),
				slog.Int("status", status),
				slog.Int64("size", size),
				slog.Duration("duration", time.Since(start)),
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
				if err != nil {
					attrs = append(attrs, logger.Err(err))
				}
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			log := cfg.Logger
			if log == nil {
				log = c.Logger()
			}
			log.LogAttrs(c, level, "http request", attrs...)
			return err
		}
	}
}

// responseStatus reports the status and body size of the response. When the
// pipeline failed before writing, the status comes from the error taxonomy.
func responseStatus(c internal.Context, err error) (int, int64) {
	rw, ok := c.Response().(*internal.ResponseWriter)
	if err != nil && (!ok || !rw.Written()) {
		return internal.AsError(err).StatusCode(), 0
	}
	if !ok {
		return http.StatusOK, 0
	}
	return rw.Status(), rw.Size()
}
