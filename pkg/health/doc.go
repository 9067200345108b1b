// Package health provides HTTP handlers for health probes.
//
// [StatusHandler] answers the plain "can this process serve requests" probe
// with a fixed {"status":"ok"} body. [LivenessHandler] and [ReadinessHandler]
// serve orchestration probes; readiness runs named [Checks] in parallel with
// a shared timeout and reports each result:
//
//	r.Get("/health", health.StatusHandler())
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"database": db.Healthcheck(conn),
//		"redis":    redis.Healthcheck(client),
//	}, health.WithTimeout(2*time.Second)))
//
// A failing readiness probe responds 503:
//
//	{"status":"unhealthy","checks":{"database":{"status":"unhealthy","duration":"2s","error":"..."}}}
package health
