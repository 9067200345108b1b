package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

const labelSchema = `{
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 64}
	}
}`

type labelRequest struct {
	Name string `json:"name"`
}

// Labels manages the labels images are tagged with.
type Labels struct {
	base
	list  *schema.Validator
	write *schema.Validator
}

// NewLabels creates the label handler.
func NewLabels(repo *repository.Repository, schemas *schema.Compiler, opts ...Option) *Labels {
	h := &Labels{base: newBase(repo, schemas, opts...)}
	h.list = h.listQuery([]string{"id", "name", "createdAt", "updatedAt"}, nil)
	h.write = h.body(labelSchema)
	return h
}

// Routes implements atelier.Handler.
func (h *Labels) Routes(r atelier.Router) {
	r.Route("/api/labels", func(r atelier.Router) {
		r.GET("/", h.auth, middlewares.ValidateQuery(h.list), h.index)
		r.POST("/", h.auth, middlewares.ValidateBody(h.write), h.store)
		r.GET("/{id}", h.auth, h.show)
		r.PUT("/{id}", h.auth, middlewares.ValidateBody(h.write), h.update)
		r.DELETE("/{id}", h.auth, h.destroy)
	})
}

func (h *Labels) index(c atelier.Context) (atelier.Result, error) {
	page, err := h.repo.ListLabels(c, h.listParams(c))
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, page)
}

// name reads and cleans the label name. A name that is only markup is invalid.
func (h *Labels) name(c atelier.Context) (string, error) {
	var req labelRequest
	if err := c.BindJSON(&req); err != nil {
		return "", err
	}
	name := h.clean.Text(req.Name)
	if name == "" {
		return "", atelier.ErrInvalidPayload.WithDetails(map[string]any{"fields": []string{"/name"}})
	}
	return name, nil
}

func (h *Labels) store(c atelier.Context) (atelier.Result, error) {
	name, err := h.name(c)
	if err != nil {
		return atelier.Continue, err
	}
	label, err := h.repo.CreateLabel(c, name)
	if err != nil {
		return atelier.Continue, labelError(err, name)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, label)
}

func (h *Labels) show(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	label, err := h.repo.GetLabel(c, id)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, label)
}

func (h *Labels) update(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	name, err := h.name(c)
	if err != nil {
		return atelier.Continue, err
	}
	label, err := h.repo.RenameLabel(c, id, name)
	if err != nil {
		return atelier.Continue, labelError(err, name)
	}
	return atelier.Respond, c.JSON(http.StatusOK, label)
}

func (h *Labels) destroy(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	if err := h.repo.DeleteLabel(c, id); err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}

func labelError(err error, name string) error {
	if errors.Is(err, repository.ErrDuplicateLabel) {
		return atelier.ErrDuplicateLabelName.With(name).Wrap(err)
	}
	return apiError(err)
}
