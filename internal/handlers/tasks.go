package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

const taskSchema = `{
	"type": "object",
	"required": ["title", "kind", "config"],
	"additionalProperties": false,
	"properties": {
		"title": {"type": "string", "minLength": 1, "maxLength": 200},
		"kind": {"type": "string", "enum": ["quiz", "memory", "puzzle"]},
		"config": {"type": "object"}
	}
}`

type taskRequest struct {
	Title  string          `json:"title"`
	Kind   model.TaskKind  `json:"kind"`
	Config json.RawMessage `json:"config"`
}

// Tasks manages reusable exercises. The config shape depends on the kind.
type Tasks struct {
	base
	list  *schema.Validator
	write *schema.Validator
}

// NewTasks creates the task handler.
func NewTasks(repo *repository.Repository, schemas *schema.Compiler, opts ...Option) *Tasks {
	h := &Tasks{base: newBase(repo, schemas, opts...)}
	h.list = h.listQuery([]string{"id", "title", "kind", "createdAt", "updatedAt"}, map[string]any{
		"kind": map[string]any{"type": "string", "enum": model.TaskKinds},
	})
	h.write = h.body(taskSchema)
	return h
}

// Routes implements atelier.Handler.
func (h *Tasks) Routes(r atelier.Router) {
	r.Route("/api/tasks", func(r atelier.Router) {
		r.GET("/", h.auth, middlewares.ValidateQuery(h.list), h.index)
		r.POST("/", h.auth, middlewares.ValidateBody(h.write), h.store)
		r.GET("/{id}", h.auth, h.show)
		r.PUT("/{id}", h.auth, middlewares.ValidateBody(h.write), h.update)
		r.DELETE("/{id}", h.auth, h.destroy)
	})
}

func (h *Tasks) index(c atelier.Context) (atelier.Result, error) {
	kind := model.TaskKind(c.SearchParams().String("kind", ""))
	page, err := h.repo.ListTasks(c, kind, h.listParams(c))
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, page)
}

// input decodes the body into a typed, validated config.
func (h *Tasks) input(c atelier.Context) (repository.TaskInput, error) {
	var req taskRequest
	if err := c.BindJSON(&req); err != nil {
		return repository.TaskInput{}, err
	}
	cfg, err := model.DecodeTaskConfig(req.Kind, req.Config)
	if err != nil {
		return repository.TaskInput{}, apiError(err)
	}
	title := h.clean.Text(req.Title)
	if title == "" {
		return repository.TaskInput{}, atelier.ErrInvalidPayload.WithDetails(map[string]any{"fields": []string{"/title"}})
	}
	return repository.TaskInput{Title: title, Config: cfg}, nil
}

func (h *Tasks) store(c atelier.Context) (atelier.Result, error) {
	in, err := h.input(c)
	if err != nil {
		return atelier.Continue, err
	}
	task, err := h.repo.CreateTask(c, in)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, task)
}

func (h *Tasks) show(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	task, err := h.repo.GetTask(c, id)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, task)
}

func (h *Tasks) update(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	in, err := h.input(c)
	if err != nil {
		return atelier.Continue, err
	}
	task, err := h.repo.UpdateTask(c, id, in)
	if err != nil {
		return atelier.Continue, apiError(err)
	}

	// Public views embed the task.
	hashes, err := h.repo.ProgramHashesWithTask(c, id)
	if err != nil {
		c.Logger().WarnContext(c, "public views not invalidated", slog.Int64("task_id", id), logger.Err(err))
	}
	forgetPublic(c, hashes...)
	return atelier.Respond, c.JSON(http.StatusOK, task)
}

func (h *Tasks) destroy(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	if err := h.repo.DeleteTask(c, id); err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}
