package health

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/atelier/pkg/logger"
)

// fixedBody is what StatusHandler always writes.
var fixedBody = []byte(`{"status":"ok"}`)

// StatusHandler responds 200 with {"status":"ok"} whenever the process can
// serve requests. It touches no dependency.
func StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(fixedBody)
	}
}

// LivenessHandler always responds healthy.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs all checks and responds 503 if any of them fails.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := config{timeout: defaultTimeout, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := probe(r.Context(), checks, cfg)
		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
