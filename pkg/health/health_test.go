package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/pkg/health"
)

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.StatusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	tests := []struct {
		name       string
		checks     health.Checks
		wantStatus int
		wantBody   string
	}{
		{"no checks", nil, http.StatusOK, health.StatusHealthy},
		{"all pass", health.Checks{"db": ok, "redis": ok}, http.StatusOK, health.StatusHealthy},
		{"one fails", health.Checks{"db": ok, "redis": failing}, http.StatusServiceUnavailable, health.StatusUnhealthy},
		{"timeout", health.Checks{"db": slow}, http.StatusServiceUnavailable, health.StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := health.ReadinessHandler(tt.checks, health.WithTimeout(50*time.Millisecond))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp health.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestReadinessReportsTimeout(t *testing.T) {
	t.Parallel()

	h := health.ReadinessHandler(health.Checks{
		"db": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, health.WithTimeout(20*time.Millisecond))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Checks["db"].Error, health.ErrCheckTimeout.Error())
	assert.NotEmpty(t, resp.Checks["db"].Duration)
}
