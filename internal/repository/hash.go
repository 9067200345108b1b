package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/pkg/db"
)

// The canonical forms below fix the field set and order hashed for each
// entity. The hash column itself is never part of them.

type programCanonical struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"userId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	StartsAt    string              `json:"startsAt"`
	EndsAt      string              `json:"endsAt"`
	Tasks       []model.ProgramTask `json:"tasks"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

type taskCanonical struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Kind      model.TaskKind  `json:"kind"`
	Config    json.RawMessage `json:"config"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

func canonicalTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func canonicalOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return canonicalTime(*t)
}

// ProgramHash derives the public hash of p from its persisted fields.
func (r *Repository) ProgramHash(p *model.Program) (string, error) {
	tasks := p.Tasks
	if tasks == nil {
		tasks = []model.ProgramTask{}
	}
	return r.hasher.Sum(programCanonical{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		StartsAt:    canonicalOptionalTime(p.StartsAt),
		EndsAt:      canonicalOptionalTime(p.EndsAt),
		Tasks:       tasks,
		CreatedAt:   canonicalTime(p.CreatedAt),
		UpdatedAt:   canonicalTime(p.UpdatedAt),
	})
}

// TaskHash derives the public hash of t from its persisted fields.
func (r *Repository) TaskHash(t *model.Task) (string, error) {
	cfg, err := json.Marshal(t.Config)
	if err != nil {
		return "", err
	}
	return r.hasher.Sum(taskCanonical{
		ID:        t.ID,
		Title:     t.Title,
		Kind:      t.Kind,
		Config:    cfg,
		CreatedAt: canonicalTime(t.CreatedAt),
		UpdatedAt: canonicalTime(t.UpdatedAt),
	})
}

// stampProgram writes the hash of the already written row p.
func (r *Repository) stampProgram(ctx context.Context, q db.Querier, p *model.Program) error {
	h, err := r.ProgramHash(p)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, q, "UPDATE programs SET hash = ? WHERE id = ?", h, p.ID); err != nil {
		return err
	}
	p.Hash = h
	return nil
}

// stampTask writes the hash of the already written row t.
func (r *Repository) stampTask(ctx context.Context, q db.Querier, t *model.Task) error {
	h, err := r.TaskHash(t)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, q, "UPDATE tasks SET hash = ? WHERE id = ?", h, t.ID); err != nil {
		return err
	}
	t.Hash = h
	return nil
}
