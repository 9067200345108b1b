package cas

import (
	"context"
	"io"
	"time"
)

// Config configures the asset store.
type Config struct {
	Root          string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxSize       int64         `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"`
	AllowedTypes  []string      `env:"UPLOAD_ALLOWED_TYPES" envSeparator:"," envDefault:"image/png,image/jpeg,image/gif,image/webp"`
	SweepSchedule string        `env:"UPLOAD_SWEEP_SCHEDULE" envDefault:"@every 30m"`
	SweepAge      time.Duration `env:"UPLOAD_SWEEP_AGE" envDefault:"1h"`
}

// Asset is the persisted record of one distinct piece of content.
type Asset struct {
	ID               int64     `db:"id" json:"id"`
	Hash             string    `db:"hash" json:"hash"`
	StoredPath       string    `db:"stored_path" json:"path"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	ContentType      string    `db:"content_type" json:"contentType"`
	Size             int64     `db:"size" json:"size"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// Upload is a single file stream to ingest.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// Records persists asset metadata.
//
// FindByHash returns ErrRecordNotFound when no row exists.
// Insert returns ErrHashConflict when a row with the same hash already exists.
// Touch bumps updated_at and returns the refreshed row.
type Records interface {
	FindByHash(ctx context.Context, hash string) (*Asset, error)
	Insert(ctx context.Context, a Asset) (*Asset, error)
	Touch(ctx context.Context, id int64) (*Asset, error)
}

// Mirror receives a copy of every newly stored canonical file.
type Mirror interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}
