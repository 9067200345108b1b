package health

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/atelier/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	// Check statuses.
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency. db.Healthcheck and redis.Healthcheck return one.
type CheckFunc func(ctx context.Context) error

// Checks names the probes a readiness endpoint runs.
type Checks map[string]CheckFunc

// Response is the readiness body. Checks is omitted when none are configured.
type Response struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Check is the outcome of one probe.
type Check struct {
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures ReadinessHandler.
type Option func(*config)

// WithTimeout bounds the whole round of checks.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failed checks to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// probe runs every check concurrently under one deadline. A failing check
// never cancels the others.
func probe(ctx context.Context, checks Checks, cfg config) Response {
	if len(checks) == 0 {
		return Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Check, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			start := time.Now()
			err := checks[name](ctx)
			if err != nil && errors.Is(err, context.DeadlineExceeded) {
				err = errors.Join(ErrCheckTimeout, err)
			}
			results[i] = Check{Status: StatusHealthy, Duration: time.Since(start).Round(time.Microsecond).String()}
			if err != nil {
				results[i].Status = StatusUnhealthy
				results[i].Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed", slog.String("check", name), logger.Err(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := Response{Status: StatusHealthy, Checks: make(map[string]Check, len(names))}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i].Status == StatusUnhealthy {
			resp.Status = StatusUnhealthy
		}
	}
	return resp
}
