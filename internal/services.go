package internal

import (
	"encoding/json"
	"log/slog"

	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/schema"
	"github.com/dmitrymomot/atelier/pkg/token"
)

// services are the process-wide dependencies set by Options. The App embeds
// them and every request context shares the App's copy. Unset services are nil.
type services struct {
	logger  *slog.Logger
	cookies *cookie.Manager
	tokens  *token.Signer
	db      *db.DB
	schemas *schema.Compiler
	cache   *cache.Loader[json.RawMessage]
	assets  *cas.Store
}

// Logger returns the application logger.
func (s *services) Logger() *slog.Logger { return s.logger }

// Tokens returns the session token signer.
func (s *services) Tokens() *token.Signer { return s.tokens }

func (s *services) DB() *db.DB                             { return s.db }
func (s *services) Schemas() *schema.Compiler              { return s.schemas }
func (s *services) Cache() *cache.Loader[json.RawMessage] { return s.cache }
func (s *services) Assets() *cas.Store                     { return s.assets }
