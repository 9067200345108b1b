package internal

import (
	"log/slog"

	"github.com/dmitrymomot/atelier/pkg/health"
)

// HealthOption configures the health endpoints.
type HealthOption func(health.Checks)

// WithReadinessCheck adds a named check to /health/ready. All checks run
// concurrently on every probe.
//
//	atelier.WithReadinessCheck("db", db.Healthcheck(database))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(checks health.Checks) {
		if fn != nil {
			checks[name] = fn
		}
	}
}

// healthRoutes serves /health (process status), /health/live and
// /health/ready. Registered before any other Handler.
type healthRoutes struct {
	checks health.Checks
	log    *slog.Logger
}

func (h *healthRoutes) Routes(r Router) {
	r.GET("/health", HTTPStage(health.StatusHandler()))
	r.GET("/health/live", HTTPStage(health.LivenessHandler()))
	r.GET("/health/ready", HTTPStage(health.ReadinessHandler(h.checks, health.WithLogger(h.log))))
}
