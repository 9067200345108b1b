package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newSigner(t *testing.T, now func() time.Time) *token.Signer {
	t.Helper()
	s, err := token.New(token.Config{Secret: testSecret, TTL: time.Hour, Issuer: "atelier"}, token.WithClock(now))
	require.NoError(t, err)
	return s
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	signer := newSigner(t, time.Now)
	member, err := signer.Sign(7, "member")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	expired, err := newSigner(t, func() time.Time { return past }).Sign(7, "member")
	require.NoError(t, err)

	other, err := token.New(token.Config{Secret: strings.Repeat("z", 32), TTL: time.Hour, Issuer: "atelier"})
	require.NoError(t, err)
	forged, err := other.Sign(1, "admin")
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{
			name:   "cookie",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: member}) },
			status: http.StatusOK,
		},
		{
			name:   "bearer header",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+member) },
			status: http.StatusOK,
		},
		{
			name:   "missing",
			setup:  func(*http.Request) {},
			status: http.StatusUnauthorized,
		},
		{
			name:   "garbage",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "not-a-token"}) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "expired",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: expired}) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "foreign signature",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged) },
			status: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var claims *token.Claims
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := serve(t, req, "/me", []internal.Option{internal.WithTokens(signer)},
				middlewares.Authenticate(),
				respond(func(c internal.Context) error {
					claims, _ = middlewares.GetClaims(c)
					return c.JSON(http.StatusOK, map[string]int64{"id": claims.UserID})
				}),
			)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, claims)
				assert.Equal(t, int64(7), claims.UserID)
				assert.Equal(t, "member", claims.Role)
				return
			}
			assert.JSONEq(t, `{"error":"UNAUTHORIZED","message":"authentication required"}`, w.Body.String())
		})
	}
}

func TestAuthenticateWithoutSigner(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer something")
	w := serve(t, req, "/me", nil, middlewares.Authenticate(), ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateWithTokenSources(t *testing.T) {
	t.Parallel()

	signer := newSigner(t, time.Now)
	raw, err := signer.Sign(3, "member")
	require.NoError(t, err)
	stage := middlewares.Authenticate(middlewares.WithTokenSources(internal.HeaderToken("X-Session-Token")))
	opts := []internal.Option{internal.WithTokens(signer)}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Session-Token", raw)
	assert.Equal(t, http.StatusOK, serve(t, req, "/me", opts, stage, ok).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, serve(t, req, "/me", opts, stage, ok).Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	signer := newSigner(t, time.Now)

	tests := []struct {
		name   string
		role   string
		status int
	}{
		{"admin passes", "admin", http.StatusOK},
		{"member is forbidden", "member", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw, err := signer.Sign(1, tt.role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: raw})
			w := serve(t, req, "/admin", []internal.Option{internal.WithTokens(signer)},
				middlewares.Authenticate(), middlewares.RequireRole("admin"), ok)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("without authenticate", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		w := serve(t, req, "/admin", nil, middlewares.RequireRole("admin"), ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserIDExtractor(t *testing.T) {
	t.Parallel()

	signer := newSigner(t, time.Now)
	raw, err := signer.Sign(42, "member")
	require.NoError(t, err)

	var buf bytes.Buffer
	log := slog.New(logger.NewLogHandlerDecorator(slog.NewJSONHandler(&buf, nil), middlewares.UserIDExtractor()))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: raw})
	serve(t, req, "/me", []internal.Option{internal.WithTokens(signer), internal.WithLogger(log)},
		middlewares.Authenticate(),
		respond(func(c internal.Context) error {
			c.Logger().InfoContext(c, "handled")
			return nil
		}),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(42), entry["user_id"])
}
