package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/pkg/logger"
)

const publicKeyPrefix = "public:program:"

func publicKey(hash string) string { return publicKeyPrefix + hash }

// forgetPublic drops cached public views. Failures only leave a stale entry
// until it expires, so they are logged and otherwise ignored.
func forgetPublic(c atelier.Context, hashes ...string) {
	loader := c.Cache()
	if loader == nil {
		return
	}
	for _, hash := range hashes {
		if hash == "" {
			continue
		}
		if err := loader.Forget(c, publicKey(hash)); err != nil {
			c.Logger().WarnContext(c, "public view cache not invalidated",
				slog.String("hash", hash),
				logger.Err(err),
			)
		}
	}
}

// Public serves programs to anonymous players by their opaque hash.
type Public struct {
	repo *repository.Repository
}

// NewPublic creates the public program handler.
func NewPublic(repo *repository.Repository) *Public {
	return &Public{repo: repo}
}

// Routes implements atelier.Handler.
func (h *Public) Routes(r atelier.Router) {
	r.GET("/public/programs/{hash}", h.program)
}

func (h *Public) program(c atelier.Context) (atelier.Result, error) {
	hash := c.Param("hash")
	load := func(ctx context.Context) (json.RawMessage, error) {
		view, err := h.repo.PublicProgram(ctx, hash)
		if err != nil {
			return nil, err
		}
		return json.Marshal(view)
	}

	var (
		body json.RawMessage
		err  error
	)
	if loader := c.Cache(); loader != nil {
		body, err = loader.Get(c, publicKey(hash), load)
	} else {
		body, err = load(c)
	}
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, body)
}
