package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/health"
	"github.com/dmitrymomot/atelier/pkg/schema"
	"github.com/dmitrymomot/atelier/pkg/token"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided; the first one is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithMount attaches a plain http.Handler below pattern. Mounted handlers
// bypass the pipeline and the global middlewares. A second mount on the same
// pattern replaces the first.
//
// Example:
//
//	atelier.WithMount("/files", http.StripPrefix("/files", store.Handler()))
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		if h == nil {
			return
		}
		if a.mounts == nil {
			a.mounts = make(map[string]http.Handler)
		}
		a.mounts[pattern] = h
	}
}

// WithErrorHandler replaces HandleError.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithHealthChecks enables /health, /health/live and /health/ready.
//
// Example:
//
//	atelier.WithHealthChecks(
//	    atelier.WithReadinessCheck("db", db.Healthcheck(database)),
//	    atelier.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		checks := make(health.Checks)
		for _, opt := range opts {
			opt(checks)
		}
		a.health = &healthRoutes{checks: checks}
	}
}

// WithLogger sets the application logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookies sets the attributes of cookies written through Context.Cookies.
func WithCookies(cfg cookie.Config) Option {
	return func(a *App) {
		a.cookies = cookie.New(cfg)
	}
}

// WithTokens sets the signer behind Context.Tokens.
func WithTokens(s *token.Signer) Option {
	return func(a *App) {
		a.tokens = s
	}
}

// WithDB sets the database behind Context.DB.
func WithDB(d *db.DB) Option {
	return func(a *App) {
		a.db = d
	}
}

// WithSchemas replaces the schema compiler behind Context.Schemas.
func WithSchemas(c *schema.Compiler) Option {
	return func(a *App) {
		if c != nil {
			a.schemas = c
		}
	}
}

// WithCache sets the response cache behind Context.Cache.
//
// Example:
//
//	views := cache.NewLoader(cache.NewMemory[json.RawMessage](5*time.Minute, 1000, time.Minute), 5*time.Minute)
//	atelier.WithCache(views)
func WithCache(l *cache.Loader[json.RawMessage]) Option {
	return func(a *App) {
		a.cache = l
	}
}

// WithAssets sets the asset store behind Context.Assets.
func WithAssets(s *cas.Store) Option {
	return func(a *App) {
		a.assets = s
	}
}

// WithMaxBodySize limits how many bytes Context.Body reads.
// Defaults to 1MB.
func WithMaxBodySize(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxBodySize = n
		}
	}
}
