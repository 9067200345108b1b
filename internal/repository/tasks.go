package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/pkg/db"
)

const taskColumns = "id, hash, title, kind, config, created_at, updated_at"

var taskOrders = map[string]string{
	"id":        "id",
	"title":     "title",
	"kind":      "kind",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// taskRow is a tasks row before its config is decoded.
type taskRow struct {
	ID        int64     `db:"id"`
	Hash      string    `db:"hash"`
	Title     string    `db:"title"`
	Kind      string    `db:"kind"`
	Config    string    `db:"config"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row taskRow) task() (*model.Task, error) {
	kind := model.TaskKind(row.Kind)
	cfg, err := model.DecodeTaskConfig(kind, []byte(row.Config))
	if err != nil {
		return nil, errors.Join(ErrCorruptRow, fmt.Errorf("task %d: %w", row.ID, err))
	}
	return &model.Task{
		ID:        row.ID,
		Hash:      row.Hash,
		Title:     row.Title,
		Kind:      kind,
		Config:    cfg,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// TaskInput carries the writable fields of a task.
type TaskInput struct {
	Title  string
	Config model.TaskConfig
}

// CreateTask stores a task, mirrors its image references into task_images
// and stamps its hash, all in one transaction.
func (r *Repository) CreateTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	cfg, err := json.Marshal(in.Config)
	if err != nil {
		return nil, err
	}

	now := r.timestamp()
	t := &model.Task{
		Title:     in.Title,
		Kind:      in.Config.Kind(),
		Config:    in.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		refs := in.Config.ImageRefs()
		if err := requireIDs(ctx, tx, "images", "image", refs); err != nil {
			return err
		}
		id, err := db.Insert(ctx, tx,
			"INSERT INTO tasks (hash, title, kind, config, created_at, updated_at) VALUES ('', ?, ?, ?, ?, ?) RETURNING id",
			t.Title, string(t.Kind), string(cfg), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return err
		}
		t.ID = id
		if err := syncTaskImages(ctx, tx, id, refs); err != nil {
			return err
		}
		return r.stampTask(ctx, tx, t)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return t, nil
}

// UpdateTask replaces title and config of task id. The kind may change.
func (r *Repository) UpdateTask(ctx context.Context, id int64, in TaskInput) (*model.Task, error) {
	cfg, err := json.Marshal(in.Config)
	if err != nil {
		return nil, err
	}

	var t *model.Task
	err = db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := getTask(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}
		refs := in.Config.ImageRefs()
		if err := requireIDs(ctx, tx, "images", "image", refs); err != nil {
			return err
		}

		t = &model.Task{
			ID:        id,
			Title:     in.Title,
			Kind:      in.Config.Kind(),
			Config:    in.Config,
			CreatedAt: current.CreatedAt,
			UpdatedAt: r.timestamp(),
		}
		if _, err := db.Exec(ctx, tx,
			"UPDATE tasks SET title = ?, kind = ?, config = ?, updated_at = ? WHERE id = ?",
			t.Title, string(t.Kind), string(cfg), t.UpdatedAt, id,
		); err != nil {
			return err
		}
		if err := syncTaskImages(ctx, tx, id, refs); err != nil {
			return err
		}
		return r.stampTask(ctx, tx, t)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return t, nil
}

// syncTaskImages makes task_images for task exactly the set refs.
func syncTaskImages(ctx context.Context, q db.Querier, taskID int64, refs []int64) error {
	if _, err := db.Exec(ctx, q, "DELETE FROM task_images WHERE task_id = ?", taskID); err != nil {
		return err
	}
	for _, imageID := range refs {
		if _, err := db.Exec(ctx, q, "INSERT INTO task_images (task_id, image_id) VALUES (?, ?)", taskID, imageID); err != nil {
			return err
		}
	}
	return nil
}

func getTask(ctx context.Context, q db.Querier, where string, args ...any) (*model.Task, error) {
	var row taskRow
	err := db.Get(ctx, q, &row, "SELECT "+taskColumns+" FROM tasks WHERE "+where, args...)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.task()
}

// GetTask returns the task with id.
func (r *Repository) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	return getTask(ctx, r.db, "id = ?", id)
}

// ListTasks returns one page of tasks, optionally of a single kind. Query
// matches the title.
func (r *Repository) ListTasks(ctx context.Context, kind model.TaskKind, p model.ListParams) (model.Page[model.Task], error) {
	spec := listSpec{table: "tasks", columns: taskColumns, search: "title", orders: taskOrders}
	if kind != "" {
		spec.where = []string{"kind = ?"}
		spec.args = []any{string(kind)}
	}
	rows, err := listPage[taskRow](ctx, r.db, spec, p)
	if err != nil {
		return model.Page[model.Task]{}, err
	}

	page := model.Page[model.Task]{Items: make([]model.Task, 0, len(rows.Items)), Total: rows.Total}
	for _, row := range rows.Items {
		t, err := row.task()
		if err != nil {
			return model.Page[model.Task]{}, err
		}
		page.Items = append(page.Items, *t)
	}
	return page, nil
}

// tasksByID loads the tasks with ids, keyed by id.
func tasksByID(ctx context.Context, q db.Querier, ids []int64) (map[int64]*model.Task, error) {
	out := make(map[int64]*model.Task, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT "+taskColumns+" FROM tasks WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []taskRow
	if err := db.Select(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		t, err := row.task()
		if err != nil {
			return nil, err
		}
		out[t.ID] = t
	}
	return out, nil
}

// DeleteTask removes a task no program uses, together with its image links.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		used, err := db.Exists(ctx, tx, "SELECT 1 FROM program_tasks WHERE task_id = ? LIMIT 1", id)
		if err != nil {
			return err
		}
		if used {
			return ErrRelationExists
		}
		if _, err := db.Exec(ctx, tx, "DELETE FROM task_images WHERE task_id = ?", id); err != nil {
			return err
		}
		return guardedDelete(ctx, tx, "tasks", id)
	})
}

// mapWriteError turns constraint failures that slipped past the explicit
// existence checks into repository errors.
func mapWriteError(err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return errors.Join(ErrMissingEntity, err)
	default:
		return err
	}
}
