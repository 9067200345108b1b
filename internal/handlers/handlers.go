package handlers

import (
	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/sanitizer"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

// DefaultSearchLimit caps the page size of listings filtered with q.
const DefaultSearchLimit = 50

// Option configures the handlers built by the constructors in this package.
type Option func(*base)

// WithSearchLimit caps the page size of searches.
func WithSearchLimit(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.searchLimit = n
		}
	}
}

// WithSanitizer replaces the default text sanitizer.
func WithSanitizer(s *sanitizer.Sanitizer) Option {
	return func(b *base) {
		if s != nil {
			b.clean = s
		}
	}
}

// base holds what every handler shares.
type base struct {
	repo        *repository.Repository
	schemas     *schema.Compiler
	clean       *sanitizer.Sanitizer
	searchLimit int
	auth        atelier.Stage
	admin       atelier.Stage
}

func newBase(repo *repository.Repository, schemas *schema.Compiler, opts ...Option) base {
	if schemas == nil {
		schemas = schema.NewCompiler()
	}
	b := base{
		repo:        repo,
		schemas:     schemas,
		clean:       sanitizer.New(),
		searchLimit: DefaultSearchLimit,
		auth:        middlewares.Authenticate(),
		admin:       middlewares.RequireRole(model.RoleAdmin),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// listQuery compiles the query schema of a listing ordered by one of orders.
func (b *base) listQuery(orders []string, extra map[string]any) *schema.Validator {
	props := map[string]any{
		"limit":    map[string]any{"type": "integer", "minimum": 1, "maximum": repository.MaxLimit, "default": repository.DefaultLimit},
		"offset":   map[string]any{"type": "integer", "minimum": 0, "default": 0},
		"order_by": map[string]any{"type": "string", "enum": orders},
		"dir":      map[string]any{"type": "string", "enum": []string{"asc", "desc"}, "default": "asc"},
		"q":        map[string]any{"type": "string", "maxLength": 200},
	}
	for k, v := range extra {
		props[k] = v
	}
	return b.schemas.MustCompile(map[string]any{
		"type":       "object",
		"properties": props,
	})
}

// listParams reads the window validated by listQuery. A search is capped at
// the search limit.
func (b *base) listParams(c atelier.Context) model.ListParams {
	q := c.SearchParams()
	p := model.ListParams{
		Limit:   q.Int("limit", repository.DefaultLimit),
		Offset:  q.Int("offset", 0),
		OrderBy: q.String("order_by", ""),
		Desc:    q.String("dir", "asc") == "desc",
		Query:   q.String("q", ""),
	}
	if p.Query != "" && p.Limit > b.searchLimit {
		p.Limit = b.searchLimit
	}
	return p
}

// body compiles a request body schema.
func (b *base) body(def string) *schema.Validator {
	return b.schemas.MustCompile(def)
}

// session returns the claims Authenticate stored.
func session(c atelier.Context) (userID int64, admin bool) {
	claims, ok := middlewares.GetClaims(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, claims.Role == model.RoleAdmin
}
