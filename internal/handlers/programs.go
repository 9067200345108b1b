package handlers

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

const programSchema = `{
	"type": "object",
	"required": ["title"],
	"additionalProperties": false,
	"properties": {
		"userId": {"type": "integer", "minimum": 1},
		"title": {"type": "string", "minLength": 1, "maxLength": 200},
		"description": {"type": "string", "maxLength": 10000},
		"startsAt": {"type": ["string", "null"]},
		"endsAt": {"type": ["string", "null"]},
		"tasks": {
			"type": "array",
			"maxItems": 500,
			"items": {
				"type": "object",
				"required": ["taskId"],
				"additionalProperties": false,
				"properties": {
					"taskId": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

const copySchema = `{
	"type": "object",
	"required": ["userId"],
	"additionalProperties": false,
	"properties": {
		"userId": {"type": "integer", "minimum": 1}
	}
}`

type programRequest struct {
	UserID      int64               `json:"userId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	StartsAt    *time.Time          `json:"startsAt"`
	EndsAt      *time.Time          `json:"endsAt"`
	Tasks       []model.ProgramTask `json:"tasks"`
}

type copyRequest struct {
	UserID int64 `json:"userId"`
}

// Programs manages ordered task lists owned by users. Members see and change
// only their own programs; admins manage all of them.
type Programs struct {
	base
	list     *schema.Validator
	write    *schema.Validator
	copyBody *schema.Validator
}

// NewPrograms creates the program handler.
func NewPrograms(repo *repository.Repository, schemas *schema.Compiler, opts ...Option) *Programs {
	h := &Programs{base: newBase(repo, schemas, opts...)}
	h.list = h.listQuery([]string{"id", "title", "startsAt", "endsAt", "createdAt", "updatedAt"}, map[string]any{
		"userId": map[string]any{"type": "integer", "minimum": 1},
	})
	h.write = h.body(programSchema)
	h.copyBody = h.body(copySchema)
	return h
}

// Routes implements atelier.Handler.
func (h *Programs) Routes(r atelier.Router) {
	r.Route("/api/programs", func(r atelier.Router) {
		r.GET("/", h.auth, middlewares.ValidateQuery(h.list), h.index)
		r.POST("/", h.auth, middlewares.ValidateBody(h.write), h.store)
		r.GET("/{id}", h.auth, h.show)
		r.PUT("/{id}", h.auth, middlewares.ValidateBody(h.write), h.update)
		r.DELETE("/{id}", h.auth, h.destroy)
		r.POST("/{id}/copy", h.auth, middlewares.ValidateBody(h.copyBody), h.duplicate)
	})
	r.GET("/api/me/programs", h.auth, middlewares.ValidateQuery(h.list), h.mine)
}

// owner resolves who a write is for. Only admins act on behalf of others.
func owner(c atelier.Context, requested int64) (int64, error) {
	self, admin := session(c)
	if requested == 0 || requested == self {
		return self, nil
	}
	if !admin {
		return 0, atelier.ErrForbidden
	}
	return requested, nil
}

// load returns program id if the session may access it.
func (h *Programs) load(c atelier.Context) (*model.Program, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := h.repo.GetProgram(c, id)
	if err != nil {
		return nil, apiError(err)
	}
	if self, admin := session(c); !admin && p.UserID != self {
		return nil, atelier.ErrForbidden
	}
	return p, nil
}

func (h *Programs) input(c atelier.Context) (repository.ProgramInput, error) {
	var req programRequest
	if err := c.BindJSON(&req); err != nil {
		return repository.ProgramInput{}, err
	}
	userID, err := owner(c, req.UserID)
	if err != nil {
		return repository.ProgramInput{}, err
	}
	title := h.clean.Text(req.Title)
	if title == "" {
		return repository.ProgramInput{}, atelier.ErrInvalidPayload.WithDetails(map[string]any{"fields": []string{"/title"}})
	}
	tasks := req.Tasks
	if tasks == nil {
		tasks = []model.ProgramTask{}
	}
	return repository.ProgramInput{
		UserID:      userID,
		Title:       title,
		Description: h.clean.RichText(req.Description),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Tasks:       tasks,
	}, nil
}

func (h *Programs) page(c atelier.Context, userID int64) (atelier.Result, error) {
	page, err := h.repo.ListPrograms(c, userID, h.listParams(c))
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, page)
}

// index lists every program for admins, optionally of one owner, and the
// session's own programs for members.
func (h *Programs) index(c atelier.Context) (atelier.Result, error) {
	self, admin := session(c)
	if !admin {
		return h.page(c, self)
	}
	return h.page(c, int64(c.SearchParams().Int("userId", 0)))
}

func (h *Programs) mine(c atelier.Context) (atelier.Result, error) {
	self, _ := session(c)
	return h.page(c, self)
}

func (h *Programs) store(c atelier.Context) (atelier.Result, error) {
	in, err := h.input(c)
	if err != nil {
		return atelier.Continue, err
	}
	p, err := h.repo.CreateProgram(c, in)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, p)
}

func (h *Programs) show(c atelier.Context) (atelier.Result, error) {
	p, err := h.load(c)
	if err != nil {
		return atelier.Continue, err
	}
	return atelier.Respond, c.JSON(http.StatusOK, p)
}

func (h *Programs) update(c atelier.Context) (atelier.Result, error) {
	current, err := h.load(c)
	if err != nil {
		return atelier.Continue, err
	}
	in, err := h.input(c)
	if err != nil {
		return atelier.Continue, err
	}
	if self, _ := session(c); in.UserID == self && current.UserID != self {
		// An admin editing someone else's program keeps its owner.
		in.UserID = current.UserID
	}

	p, err := h.repo.UpdateProgram(c, current.ID, in)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	forgetPublic(c, current.Hash)
	return atelier.Respond, c.JSON(http.StatusOK, p)
}

func (h *Programs) destroy(c atelier.Context) (atelier.Result, error) {
	current, err := h.load(c)
	if err != nil {
		return atelier.Continue, err
	}
	p, err := h.repo.DeleteProgram(c, current.ID)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	forgetPublic(c, p.Hash)
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}

func (h *Programs) duplicate(c atelier.Context) (atelier.Result, error) {
	src, err := h.load(c)
	if err != nil {
		return atelier.Continue, err
	}
	var req copyRequest
	if err := c.BindJSON(&req); err != nil {
		return atelier.Continue, err
	}
	userID, err := owner(c, req.UserID)
	if err != nil {
		return atelier.Continue, err
	}

	p, err := h.repo.CopyProgram(c, src.ID, userID)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, p)
}
