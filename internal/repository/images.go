package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/db"
)

const imageColumns = "id, hash, stored_path, original_filename, content_type, size, created_at, updated_at"

var imageList = listSpec{
	table:   "images",
	columns: imageColumns,
	search:  "original_filename",
	orders: map[string]string{
		"id":        "id",
		"filename":  "original_filename",
		"size":      "size",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
}

// Assets returns the image table as the record store of a cas.Store.
func (r *Repository) Assets() cas.Records {
	return assetRecords{r: r}
}

type assetRecords struct {
	r *Repository
}

func (a assetRecords) FindByHash(ctx context.Context, hash string) (*cas.Asset, error) {
	var asset cas.Asset
	err := db.Get(ctx, a.r.db, &asset, "SELECT "+imageColumns+" FROM images WHERE hash = ?", hash)
	if db.IsNoRows(err) {
		return nil, cas.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (a assetRecords) Insert(ctx context.Context, asset cas.Asset) (*cas.Asset, error) {
	now := a.r.timestamp()
	asset.CreatedAt, asset.UpdatedAt = now, now

	var err error
	asset.ID, err = db.Insert(ctx, a.r.db,
		`INSERT INTO images (hash, stored_path, original_filename, content_type, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		asset.Hash, asset.StoredPath, asset.OriginalFilename, asset.ContentType, asset.Size, asset.CreatedAt, asset.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return nil, cas.ErrHashConflict
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (a assetRecords) Touch(ctx context.Context, id int64) (*cas.Asset, error) {
	n, err := db.Exec(ctx, a.r.db, "UPDATE images SET updated_at = ? WHERE id = ?", a.r.timestamp(), id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, cas.ErrRecordNotFound
	}
	var asset cas.Asset
	if err := db.Get(ctx, a.r.db, &asset, "SELECT "+imageColumns+" FROM images WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetImage returns the image with id and its labels.
func (r *Repository) GetImage(ctx context.Context, id int64) (*model.Image, error) {
	var img model.Image
	err := db.Get(ctx, r.db, &img.Asset, "SELECT "+imageColumns+" FROM images WHERE id = ?", id)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	labels, err := r.labelsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	img.Labels = labels[id]
	if img.Labels == nil {
		img.Labels = []model.Label{}
	}
	return &img, nil
}

// ListImages returns one page of images with their labels. Query matches
// the original filename.
func (r *Repository) ListImages(ctx context.Context, p model.ListParams) (model.Page[model.Image], error) {
	assets, err := listPage[cas.Asset](ctx, r.db, imageList, p)
	if err != nil {
		return model.Page[model.Image]{}, err
	}

	ids := make([]int64, 0, len(assets.Items))
	for _, a := range assets.Items {
		ids = append(ids, a.ID)
	}
	labels, err := r.labelsOf(ctx, ids...)
	if err != nil {
		return model.Page[model.Image]{}, err
	}

	page := model.Page[model.Image]{Items: make([]model.Image, 0, len(assets.Items)), Total: assets.Total}
	for _, a := range assets.Items {
		img := model.Image{Asset: a, Labels: labels[a.ID]}
		if img.Labels == nil {
			img.Labels = []model.Label{}
		}
		page.Items = append(page.Items, img)
	}
	return page, nil
}

// labelsOf loads the labels of each image, ordered by name.
func (r *Repository) labelsOf(ctx context.Context, imageIDs ...int64) (map[int64][]model.Label, error) {
	out := make(map[int64][]model.Label, len(imageIDs))
	if len(imageIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(
		`SELECT il.image_id, l.id, l.name, l.created_at, l.updated_at
		FROM image_labels il JOIN labels l ON l.id = il.label_id
		WHERE il.image_id IN (?) ORDER BY l.name`, imageIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ImageID int64 `db:"image_id"`
		model.Label
	}
	if err := db.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ImageID] = append(out[row.ImageID], row.Label)
	}
	return out, nil
}

// DeleteImage removes an image that no task uses and no label tags, and
// returns the removed record so the caller can drop its file.
func (r *Repository) DeleteImage(ctx context.Context, id int64) (*cas.Asset, error) {
	var asset cas.Asset
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := db.Get(ctx, tx, &asset, "SELECT "+imageColumns+" FROM images WHERE id = ?", id); err != nil {
			if db.IsNoRows(err) {
				return ErrNotFound
			}
			return err
		}
		return guardedDelete(ctx, tx, "images", id,
			"SELECT 1 FROM task_images WHERE image_id = ? LIMIT 1",
			"SELECT 1 FROM image_labels WHERE image_id = ? LIMIT 1",
		)
	})
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// LinkLabel tags image imageID with label labelID.
func (r *Repository) LinkLabel(ctx context.Context, imageID, labelID int64) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := requireIDs(ctx, tx, "images", "image", []int64{imageID}); err != nil {
			return err
		}
		if err := requireIDs(ctx, tx, "labels", "label", []int64{labelID}); err != nil {
			return err
		}
		linked, err := db.Exists(ctx, tx, "SELECT 1 FROM image_labels WHERE image_id = ? AND label_id = ?", imageID, labelID)
		if err != nil {
			return err
		}
		if linked {
			return ErrDuplicateRelation
		}
		_, err = db.Exec(ctx, tx,
			"INSERT INTO image_labels (image_id, label_id, created_at) VALUES (?, ?, ?)",
			imageID, labelID, r.timestamp(),
		)
		if db.IsUniqueViolation(err) {
			return ErrDuplicateRelation
		}
		return err
	})
}

// UnlinkLabel removes the tag. A pair that is not linked is ErrNotFound.
func (r *Repository) UnlinkLabel(ctx context.Context, imageID, labelID int64) error {
	n, err := db.Exec(ctx, r.db, "DELETE FROM image_labels WHERE image_id = ? AND label_id = ?", imageID, labelID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ImagePaths maps each existing id to its public file path.
func (r *Repository) ImagePaths(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT id, stored_path FROM images WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID         int64  `db:"id"`
		StoredPath string `db:"stored_path"`
	}
	if err := db.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = model.PublicPath(row.StoredPath)
	}
	return out, nil
}
