package middlewares_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/logger"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates new request ID when not present", func(t *testing.T) {
		t.Parallel()

		var stored string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := serve(t, req, "/", []internal.Option{internal.WithMiddleware(middlewares.RequestID())},
			respond(func(c internal.Context) error {
				stored = middlewares.GetRequestID(c)
				return nil
			}))

		got := w.Header().Get("X-Request-ID")
		require.NotEmpty(t, got)
		require.Equal(t, got, stored)

		id, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "existing-request-id-123")
		w := serve(t, req, "/", []internal.Option{internal.WithMiddleware(middlewares.RequestID())}, ok)
		require.Equal(t, "existing-request-id-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("falls back to correlation header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "corr-1")
		w := serve(t, req, "/", []internal.Option{internal.WithMiddleware(middlewares.RequestID())}, ok)
		require.Equal(t, "corr-1", w.Header().Get("X-Request-ID"))
	})

	t.Run("ignores oversized incoming IDs", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 200)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", long)
		w := serve(t, req, "/", []internal.Option{internal.WithMiddleware(middlewares.RequestID())}, ok)
		got := w.Header().Get("X-Request-ID")
		require.NotEmpty(t, got)
		require.NotEqual(t, long, got)
	})

	t.Run("ignores ids with control characters", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "bad id")
		req.Header.Set("X-Correlation-ID", "corr-2")
		w := serve(t, req, "/", []internal.Option{internal.WithMiddleware(middlewares.RequestID())}, ok)
		require.Equal(t, "corr-2", w.Header().Get("X-Request-ID"))
	})

	t.Run("custom generator and headers", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.RequestID(
			middlewares.WithRequestIDHeader("X-Trace"),
			middlewares.WithRequestIDGenerator(func() string { return "generated" }),
		)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "ignored")
		req.Header.Set("X-Correlation-ID", "ignored-too")
		w := serve(t, req, "/", []internal.Option{internal.WithMiddleware(mw)}, ok)
		assert.Equal(t, "generated", w.Header().Get("X-Trace"))
		assert.Empty(t, w.Header().Get("X-Request-ID"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace", "trace-9")
		w = serve(t, req, "/", []internal.Option{internal.WithMiddleware(mw)}, ok)
		assert.Equal(t, "trace-9", w.Header().Get("X-Trace"))
	})
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	t.Parallel()
	require.Empty(t, middlewares.GetRequestID(context.Background()))
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(logger.NewLogHandlerDecorator(slog.NewJSONHandler(&buf, nil), middlewares.RequestIDExtractor()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	serve(t, req, "/", []internal.Option{
		internal.WithLogger(log),
		internal.WithMiddleware(middlewares.RequestID()),
	}, respond(func(c internal.Context) error {
		c.Logger().InfoContext(c, "handled")
		return nil
	}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "handled", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
}
