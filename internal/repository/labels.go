package repository

import (
	"context"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/pkg/db"
)

const labelColumns = "id, name, created_at, updated_at"

var labelList = listSpec{
	table:   "labels",
	columns: labelColumns,
	search:  "name",
	orders: map[string]string{
		"id":        "id",
		"name":      "name",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
}

// CreateLabel stores a label. Names are unique regardless of case.
func (r *Repository) CreateLabel(ctx context.Context, name string) (*model.Label, error) {
	now := r.timestamp()
	l := &model.Label{Name: name, CreatedAt: now, UpdatedAt: now}

	var err error
	l.ID, err = db.Insert(ctx, r.db,
		"INSERT INTO labels (name, created_at, updated_at) VALUES (?, ?, ?) RETURNING id",
		l.Name, l.CreatedAt, l.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateLabel
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLabel returns the label with id.
func (r *Repository) GetLabel(ctx context.Context, id int64) (*model.Label, error) {
	var l model.Label
	err := db.Get(ctx, r.db, &l, "SELECT "+labelColumns+" FROM labels WHERE id = ?", id)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// RenameLabel changes the name of label id.
func (r *Repository) RenameLabel(ctx context.Context, id int64, name string) (*model.Label, error) {
	n, err := db.Exec(ctx, r.db, "UPDATE labels SET name = ?, updated_at = ? WHERE id = ?", name, r.timestamp(), id)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateLabel
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetLabel(ctx, id)
}

// ListLabels returns one page of labels. Query matches the name.
func (r *Repository) ListLabels(ctx context.Context, p model.ListParams) (model.Page[model.Label], error) {
	return listPage[model.Label](ctx, r.db, labelList, p)
}

// DeleteLabel removes a label that tags no image.
func (r *Repository) DeleteLabel(ctx context.Context, id int64) error {
	return guardedDelete(ctx, r.db, "labels", id, "SELECT 1 FROM image_labels WHERE label_id = ? LIMIT 1")
}

// guardedDelete removes row id from table unless any dependent query matches.
// A foreign key violation raised by the database is reported the same way.
func guardedDelete(ctx context.Context, q db.Querier, table string, id int64, dependents ...string) error {
	for _, dep := range dependents {
		used, err := db.Exists(ctx, q, dep, id)
		if err != nil {
			return err
		}
		if used {
			return ErrRelationExists
		}
	}
	n, err := db.Exec(ctx, q, "DELETE FROM "+table+" WHERE id = ?", id)
	if db.IsForeignKeyViolation(err) {
		return ErrRelationExists
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
