package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/middlewares"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := middlewares.NewRateLimiter(0.5, 2, middlewares.WithRateLimitClock(clock.Now))

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/login", limiter.Stage(), ok)
	})))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		app.Handler().ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, call("10.0.0.1:5000").Code)
	require.Equal(t, http.StatusOK, call("10.0.0.1:5001").Code)

	w := call("10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"TOO_MANY_REQUESTS","message":"too many requests"}`, w.Body.String())
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	// Buckets are per client.
	require.Equal(t, http.StatusOK, call("10.0.0.2:5000").Code)

	clock.Advance(2 * time.Second)
	require.Equal(t, http.StatusOK, call("10.0.0.1:5003").Code)
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5004").Code)
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := middlewares.NewRateLimiter(1, 1,
		middlewares.WithRateLimitClock(clock.Now),
		middlewares.WithRateLimitIdleTTL(time.Minute),
		middlewares.WithRateLimitKey(func(c internal.Context) string { return c.Header("X-Client") }),
	)

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/login", limiter.Stage(), ok)
	})))
	call := func(client string) {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Client", client)
		app.Handler().ServeHTTP(httptest.NewRecorder(), req)
	}

	call("a")
	clock.Advance(30 * time.Second)
	call("b")
	assert.Equal(t, 2, limiter.Len())

	clock.Advance(45 * time.Second)
	call("c")
	assert.Equal(t, 2, limiter.Len(), "a idled past the TTL")
}
