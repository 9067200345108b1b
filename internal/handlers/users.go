package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

const createUserSchema = `{
	"type": "object",
	"required": ["email", "name", "password"],
	"additionalProperties": false,
	"properties": {
		"email": {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+$", "maxLength": 254},
		"name": {"type": "string", "minLength": 1, "maxLength": 100},
		"password": {"type": "string", "minLength": 8, "maxLength": 128},
		"role": {"type": "string", "enum": ["admin", "member"]}
	}
}`

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Users lets admins manage accounts.
type Users struct {
	base
	list   *schema.Validator
	create *schema.Validator
}

// NewUsers creates the user management handler.
func NewUsers(repo *repository.Repository, schemas *schema.Compiler, opts ...Option) *Users {
	h := &Users{base: newBase(repo, schemas, opts...)}
	h.list = h.listQuery([]string{"id", "email", "name", "createdAt"}, nil)
	h.create = h.body(createUserSchema)
	return h
}

// Routes implements atelier.Handler.
func (h *Users) Routes(r atelier.Router) {
	r.Route("/api/users", func(r atelier.Router) {
		r.GET("/", h.auth, h.admin, middlewares.ValidateQuery(h.list), h.index)
		r.POST("/", h.auth, h.admin, middlewares.ValidateBody(h.create), h.store)
		r.DELETE("/{id}", h.auth, h.admin, h.destroy)
	})
}

func (h *Users) index(c atelier.Context) (atelier.Result, error) {
	page, err := h.repo.ListUsers(c, h.listParams(c))
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, page)
}

func (h *Users) store(c atelier.Context) (atelier.Result, error) {
	var req createUserRequest
	if err := c.BindJSON(&req); err != nil {
		return atelier.Continue, err
	}

	in := repository.UserInput{
		Email:    repository.NormalizeEmail(req.Email),
		Name:     h.clean.Text(req.Name),
		Password: req.Password,
		Role:     req.Role,
	}
	if in.Name == "" {
		return atelier.Continue, atelier.ErrInvalidPayload.WithDetails(map[string]any{"fields": []string{"/name"}})
	}

	user, err := h.repo.CreateUser(c, in)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return atelier.Continue, atelier.ErrDuplicateEmail.With(in.Email).Wrap(err)
	}
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, user)
}

func (h *Users) destroy(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	if self, _ := session(c); self == id {
		return atelier.Continue, atelier.ErrForbidden
	}
	if err := h.repo.DeleteUser(c, id); err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}
