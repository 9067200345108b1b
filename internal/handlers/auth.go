package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

const loginSchema = `{
	"type": "object",
	"required": ["email", "password"],
	"additionalProperties": false,
	"properties": {
		"email": {"type": "string", "minLength": 3, "maxLength": 254},
		"password": {"type": "string", "minLength": 1, "maxLength": 128}
	}
}`

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth signs users in and out with a session cookie.
type Auth struct {
	base
	limiter *middlewares.RateLimiter
	login   *schema.Validator
}

// NewAuth creates the session handler. A nil limiter disables login throttling.
func NewAuth(repo *repository.Repository, schemas *schema.Compiler, limiter *middlewares.RateLimiter, opts ...Option) *Auth {
	h := &Auth{base: newBase(repo, schemas, opts...), limiter: limiter}
	h.login = h.body(loginSchema)
	return h
}

// Routes implements atelier.Handler.
func (h *Auth) Routes(r atelier.Router) {
	r.Route("/api/auth", func(r atelier.Router) {
		login := []atelier.Stage{middlewares.ValidateBody(h.login), h.signIn}
		if h.limiter != nil {
			login = append([]atelier.Stage{h.limiter.Stage()}, login...)
		}
		r.POST("/login", login...)
		r.POST("/logout", h.signOut)
		r.GET("/me", h.auth, h.me)
	})
}

func (h *Auth) signIn(c atelier.Context) (atelier.Result, error) {
	var req loginRequest
	if err := c.BindJSON(&req); err != nil {
		return atelier.Continue, err
	}

	user, err := h.repo.Authenticate(c, req.Email, req.Password)
	if err != nil {
		return atelier.Continue, apiError(err)
	}

	signer := c.Tokens()
	if signer == nil {
		return atelier.Continue, atelier.ErrInternal
	}
	raw, err := signer.Sign(user.ID, user.Role)
	if err != nil {
		return atelier.Continue, err
	}

	c.Cookies().Set(middlewares.SessionCookie, raw, signer.TTL())
	return atelier.Respond, c.JSON(http.StatusOK, user)
}

func (h *Auth) signOut(c atelier.Context) (atelier.Result, error) {
	c.Cookies().Delete(middlewares.SessionCookie)
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}

func (h *Auth) me(c atelier.Context) (atelier.Result, error) {
	id, _ := session(c)
	user, err := h.repo.GetUser(c, id)
	if errors.Is(err, repository.ErrNotFound) {
		// A valid token for a deleted account is no session.
		return atelier.Continue, atelier.ErrUnauthorized.Wrap(err)
	}
	if err != nil {
		return atelier.Continue, err
	}
	return atelier.Respond, c.JSON(http.StatusOK, user)
}
