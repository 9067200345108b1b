package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Incoming ids longer than this, or with bytes outside printable ASCII, are
// replaced by a generated one.
const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	header   string
	fallback []string
	generate func() string
}

// WithRequestIDHeader reads and echoes the id under name instead of
// X-Request-ID. Correlation headers are no longer consulted.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.header = name
		cfg.fallback = nil
	}
}

// WithRequestIDGenerator replaces the UUIDv7 generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if gen != nil {
			cfg.generate = gen
		}
	}
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestID tags every request with an id, reusing a well-formed one sent
// by the client. The id is stored in the context and echoed in the response.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &requestIDConfig{
		header:   RequestIDHeader,
		fallback: []string{"X-Correlation-ID"},
		generate: newRequestID,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sources := []internal.TokenSource{internal.HeaderToken(cfg.header)}
	for _, h := range cfg.fallback {
		sources = append(sources, internal.HeaderToken(h))
	}
	for i, src := range sources {
		sources[i] = func(c internal.Context) string {
			if v := src(c); validRequestID(v) {
				return v
			}
			return ""
		}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := internal.FirstToken(c, sources...)
			if id == "" {
				id = cfg.generate()
			}
			c.Set(requestIDKey{}, id)
			c.SetHeader(cfg.header, id)
			return next(c)
		}
	}
}

// GetRequestID returns the id RequestID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds "request_id" to records logged with a request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := GetRequestID(ctx)
		return slog.String("request_id", id), id != ""
	}
}
