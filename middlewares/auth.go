package middlewares

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/token"
)

// SessionCookie is the cookie that carries the signed session token.
const SessionCookie = "atelier_session"

type claimsKey struct{}

// AuthOption configures Authenticate.
type AuthOption func(*authConfig)

type authConfig struct {
	sources []internal.TokenSource
}

// WithTokenSources replaces where Authenticate looks for the session token.
func WithTokenSources(sources ...internal.TokenSource) AuthOption {
	return func(cfg *authConfig) {
		cfg.sources = sources
	}
}

// Authenticate returns a stage that verifies the session token with the
// App's signer and stores the claims in the context.
// By default the token is read from the session cookie, then from a Bearer header.
func Authenticate(opts ...AuthOption) internal.Stage {
	cfg := &authConfig{
		sources: []internal.TokenSource{internal.CookieToken(SessionCookie), internal.BearerToken},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c internal.Context) (internal.Result, error) {
		raw := internal.FirstToken(c, cfg.sources...)
		if raw == "" {
			return internal.Continue, internal.ErrUnauthorized
		}
		signer := c.Tokens()
		if signer == nil {
			return internal.Continue, internal.ErrUnauthorized
		}

		claims, err := signer.Verify(raw)
		if err != nil {
			return internal.Continue, internal.ErrUnauthorized.Wrap(err)
		}

		c.Set(claimsKey{}, claims)
		return internal.Continue, nil
	}
}

// RequireRole returns a stage that lets only sessions with one of roles through.
// It must run after Authenticate.
func RequireRole(roles ...string) internal.Stage {
	return func(c internal.Context) (internal.Result, error) {
		claims, ok := GetClaims(c)
		if !ok {
			return internal.Continue, internal.ErrUnauthorized
		}
		for _, role := range roles {
			if claims.Role == role {
				return internal.Continue, nil
			}
		}
		return internal.Continue, internal.ErrForbidden
	}
}

// GetClaims returns the session claims stored by Authenticate.
func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok && claims != nil
}

// UserIDExtractor returns a logger.ContextExtractor that adds "user_id" for
// authenticated requests.
func UserIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if claims, ok := GetClaims(ctx); ok {
			return slog.Int64("user_id", claims.UserID), true
		}
		return slog.Attr{}, false
	}
}
