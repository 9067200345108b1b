package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/middlewares"
)

func accessLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stage  internal.Stage
		status float64
		level  string
	}{
		{
			name: "success",
			stage: func(c internal.Context) (internal.Result, error) {
				return internal.Respond, c.JSON(http.StatusCreated, map[string]int{"id": 7})
			},
			status: http.StatusCreated,
			level:  "INFO",
		},
		{
			name: "client error from taxonomy",
			stage: func(internal.Context) (internal.Result, error) {
				return internal.Continue, internal.ErrNotFound
			},
			status: http.StatusNotFound,
			level:  "WARN",
		},
		{
			name: "untyped error",
			stage: func(internal.Context) (internal.Result, error) {
				return internal.Continue, assert.AnError
			},
			status: http.StatusInternalServerError,
			level:  "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, nil))

			req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
			serve(t, req, "/items/{id}", []internal.Option{
				internal.WithMiddleware(middlewares.Logging(middlewares.WithLoggingLogger(log))),
			}, tt.stage)

			entry := accessLog(t, &buf)
			assert.Equal(t, "http request", entry["msg"])
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "GET", entry["method"])
			assert.Equal(t, "/items/7", entry["path"])
			assert.Equal(t, "/items/{id}", entry["route"])
			assert.Equal(t, tt.status, entry["status"])
		})
	}
}

func TestLoggingRecordsSize(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := serve(t, req, "/", []internal.Option{
		internal.WithMiddleware(middlewares.Logging(middlewares.WithLoggingLogger(log))),
	}, ok)

	entry := accessLog(t, &buf)
	assert.Equal(t, float64(w.Body.Len()), entry["size"])
}

func TestLoggingSkipPaths(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := serve(t, req, "/metrics", []internal.Option{
		internal.WithMiddleware(middlewares.Logging(
			middlewares.WithLoggingLogger(log),
			middlewares.WithLoggingSkipPaths("/metrics"),
		)),
	}, ok)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, buf.String())
}
