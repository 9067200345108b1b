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

const programColumns = "id, hash, user_id, title, description, starts_at, ends_at, tasks, created_at, updated_at"

var programOrders = map[string]string{
	"id":        "id",
	"title":     "title",
	"startsAt":  "starts_at",
	"endsAt":    "ends_at",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// programRow is a programs row before its inline task list is decoded.
type programRow struct {
	model.Program
	TasksJSON string `db:"tasks"`
}

func (row programRow) program() (*model.Program, error) {
	p := row.Program
	if err := json.Unmarshal([]byte(row.TasksJSON), &p.Tasks); err != nil {
		return nil, errors.Join(ErrCorruptRow, fmt.Errorf("program %d: %w", row.ID, err))
	}
	if p.Tasks == nil {
		p.Tasks = []model.ProgramTask{}
	}
	return &p, nil
}

// ProgramInput carries the writable fields of a program. Tasks may repeat;
// only the first occurrence of each task is kept.
type ProgramInput struct {
	UserID      int64
	Title       string
	Description string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Tasks       []model.ProgramTask
}

// CreateProgram stores a program and its task list. It verifies the owner
// and every task, inserts the row, materializes program_tasks and stamps
// the hash in one transaction.
func (r *Repository) CreateProgram(ctx context.Context, in ProgramInput) (*model.Program, error) {
	now := r.timestamp()
	p := &model.Program{
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		StartsAt:    normalizeTime(in.StartsAt),
		EndsAt:      normalizeTime(in.EndsAt),
		Tasks:       model.DedupeTasks(in.Tasks),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.ValidateSchedule(); err != nil {
		return nil, err
	}

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.checkProgramRefs(ctx, tx, p); err != nil {
			return err
		}
		return r.insertProgram(ctx, tx, p)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return p, nil
}

// UpdateProgram replaces the fields and task list of program id.
func (r *Repository) UpdateProgram(ctx context.Context, id int64, in ProgramInput) (*model.Program, error) {
	var p *model.Program
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := getProgram(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}
		p = &model.Program{
			ID:          id,
			UserID:      in.UserID,
			Title:       in.Title,
			Description: in.Description,
			StartsAt:    normalizeTime(in.StartsAt),
			EndsAt:      normalizeTime(in.EndsAt),
			Tasks:       model.DedupeTasks(in.Tasks),
			CreatedAt:   current.CreatedAt,
			UpdatedAt:   r.timestamp(),
		}
		if err := p.ValidateSchedule(); err != nil {
			return err
		}
		if err := r.checkProgramRefs(ctx, tx, p); err != nil {
			return err
		}

		tasks, err := json.Marshal(p.Tasks)
		if err != nil {
			return err
		}
		if _, err := db.Exec(ctx, tx,
			`UPDATE programs SET user_id = ?, title = ?, description = ?, starts_at = ?, ends_at = ?, tasks = ?, updated_at = ?
			WHERE id = ?`,
			p.UserID, p.Title, p.Description, p.StartsAt, p.EndsAt, string(tasks), p.UpdatedAt, id,
		); err != nil {
			return err
		}
		if err := syncProgramTasks(ctx, tx, id, p.Tasks); err != nil {
			return err
		}
		return r.stampProgram(ctx, tx, p)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return p, nil
}

// CopyProgram duplicates program id for userID. The copy has its own id,
// timestamps and hash, and its own program_tasks rows.
func (r *Repository) CopyProgram(ctx context.Context, id, userID int64) (*model.Program, error) {
	var p *model.Program
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		src, err := getProgram(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}
		now := r.timestamp()
		p = &model.Program{
			UserID:      userID,
			Title:       src.Title,
			Description: src.Description,
			StartsAt:    src.StartsAt,
			EndsAt:      src.EndsAt,
			Tasks:       src.Tasks,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.checkProgramRefs(ctx, tx, p); err != nil {
			return err
		}
		return r.insertProgram(ctx, tx, p)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return p, nil
}

func (r *Repository) checkProgramRefs(ctx context.Context, q db.Querier, p *model.Program) error {
	if err := requireIDs(ctx, q, "users", "user", []int64{p.UserID}); err != nil {
		return err
	}
	return requireIDs(ctx, q, "tasks", "task", p.TaskIDs())
}

// insertProgram writes p, its junction rows and its hash. p.ID and p.Hash
// are set on success.
func (r *Repository) insertProgram(ctx context.Context, q db.Querier, p *model.Program) error {
	tasks, err := json.Marshal(p.Tasks)
	if err != nil {
		return err
	}
	p.ID, err = db.Insert(ctx, q,
		`INSERT INTO programs (hash, user_id, title, description, starts_at, ends_at, tasks, created_at, updated_at)
		VALUES ('', ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.UserID, p.Title, p.Description, p.StartsAt, p.EndsAt, string(tasks), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := syncProgramTasks(ctx, q, p.ID, p.Tasks); err != nil {
		return err
	}
	return r.stampProgram(ctx, q, p)
}

// syncProgramTasks makes program_tasks for program exactly the set tasks,
// with positions following the inline order.
func syncProgramTasks(ctx context.Context, q db.Querier, programID int64, tasks []model.ProgramTask) error {
	if _, err := db.Exec(ctx, q, "DELETE FROM program_tasks WHERE program_id = ?", programID); err != nil {
		return err
	}
	for i, t := range tasks {
		if _, err := db.Exec(ctx, q,
			"INSERT INTO program_tasks (program_id, task_id, position) VALUES (?, ?, ?)",
			programID, t.TaskID, i,
		); err != nil {
			return err
		}
	}
	return nil
}

func getProgram(ctx context.Context, q db.Querier, where string, args ...any) (*model.Program, error) {
	var row programRow
	err := db.Get(ctx, q, &row, "SELECT "+programColumns+" FROM programs WHERE "+where, args...)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.program()
}

// GetProgram returns the program with id.
func (r *Repository) GetProgram(ctx context.Context, id int64) (*model.Program, error) {
	return getProgram(ctx, r.db, "id = ?", id)
}

// GetProgramByHash returns the program with the public hash.
func (r *Repository) GetProgramByHash(ctx context.Context, hash string) (*model.Program, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return getProgram(ctx, r.db, "hash = ?", hash)
}

// ListPrograms returns one page of programs. A positive userID restricts the
// listing to that owner. Query matches the title.
func (r *Repository) ListPrograms(ctx context.Context, userID int64, p model.ListParams) (model.Page[model.Program], error) {
	spec := listSpec{table: "programs", columns: programColumns, search: "title", orders: programOrders}
	if userID > 0 {
		spec.where = []string{"user_id = ?"}
		spec.args = []any{userID}
	}
	rows, err := listPage[programRow](ctx, r.db, spec, p)
	if err != nil {
		return model.Page[model.Program]{}, err
	}

	page := model.Page[model.Program]{Items: make([]model.Program, 0, len(rows.Items)), Total: rows.Total}
	for _, row := range rows.Items {
		prog, err := row.program()
		if err != nil {
			return model.Page[model.Program]{}, err
		}
		page.Items = append(page.Items, *prog)
	}
	return page, nil
}

// ProgramTaskIDs returns the task ids in program_tasks for program, by position.
func (r *Repository) ProgramTaskIDs(ctx context.Context, programID int64) ([]int64, error) {
	ids := []int64{}
	err := db.Select(ctx, r.db, &ids, "SELECT task_id FROM program_tasks WHERE program_id = ? ORDER BY position", programID)
	return ids, err
}

// ProgramHashesWithTask returns the hashes of the programs that include task.
func (r *Repository) ProgramHashesWithTask(ctx context.Context, taskID int64) ([]string, error) {
	hashes := []string{}
	err := db.Select(ctx, r.db, &hashes,
		`SELECT p.hash FROM programs p JOIN program_tasks pt ON pt.program_id = p.id
		WHERE pt.task_id = ? AND p.hash <> '' ORDER BY p.id`, taskID)
	return hashes, err
}

// DeleteProgram removes a program and its junction rows.
func (r *Repository) DeleteProgram(ctx context.Context, id int64) (*model.Program, error) {
	var p *model.Program
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		if p, err = getProgram(ctx, tx, "id = ?", id); err != nil {
			return err
		}
		if _, err := db.Exec(ctx, tx, "DELETE FROM program_tasks WHERE program_id = ?", id); err != nil {
			return err
		}
		return guardedDelete(ctx, tx, "programs", id)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PublicProgram builds the public view of the program with hash: tasks in
// inline order, hashes instead of ids, image ids rewritten to file paths.
func (r *Repository) PublicProgram(ctx context.Context, hash string) (*model.PublicProgram, error) {
	p, err := r.GetProgramByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	tasks, err := tasksByID(ctx, r.db, p.TaskIDs())
	if err != nil {
		return nil, err
	}

	var refs []int64
	for _, t := range tasks {
		refs = append(refs, t.Config.ImageRefs()...)
	}
	paths, err := r.ImagePaths(ctx, model.UniqueIDs(refs))
	if err != nil {
		return nil, err
	}
	resolve := func(id int64) (string, bool) {
		fp, ok := paths[id]
		return fp, ok
	}

	out := &model.PublicProgram{
		Hash:        p.Hash,
		Title:       p.Title,
		Description: p.Description,
		StartsAt:    p.StartsAt,
		EndsAt:      p.EndsAt,
		Tasks:       make([]model.PublicTask, 0, len(p.Tasks)),
	}
	for _, ref := range p.Tasks {
		t, ok := tasks[ref.TaskID]
		if !ok {
			return nil, fmt.Errorf("%w: program %d references missing task %d", ErrCorruptRow, p.ID, ref.TaskID)
		}
		pt, err := t.Public(resolve)
		if err != nil {
			return nil, errors.Join(ErrCorruptRow, err)
		}
		out.Tasks = append(out.Tasks, pt)
	}
	return out, nil
}
