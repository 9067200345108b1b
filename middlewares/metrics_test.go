package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/middlewares"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := middlewares.NewMetrics("atelier")
	app := internal.New(
		internal.WithMiddleware(m.Middleware()),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/items/{id}", ok)
			r.GET("/metrics", internal.HTTPStage(m.Handler()))
		})),
	)

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(m.Registry(), "atelier_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `atelier_http_requests_total{method="GET",route="/items/{id}",status="200"} 2`)
	assert.Contains(t, body, `atelier_http_requests_total{method="GET",route="*",status="404"} 1`)
	assert.Contains(t, body, `atelier_http_request_duration_seconds_count{method="GET",route="/items/{id}"} 2`)
	assert.Contains(t, body, "atelier_http_requests_in_flight 1")
}

func TestMetricsConnectionDestroyed(t *testing.T) {
	t.Parallel()

	m := middlewares.NewMetrics("atelier")
	m.ConnectionDestroyed("idle")
	m.ConnectionDestroyed("idle")
	m.ConnectionDestroyed("request")

	count, err := testutil.GatherAndCount(m.Registry(), "atelier_connections_destroyed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
