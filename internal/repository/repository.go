package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/opaque"
)

// Repository is the single write path for every entity. Multi-row writes run
// in one transaction; a failure anywhere rolls all of them back.
type Repository struct {
	db         *db.DB
	hasher     *opaque.Hasher
	now        func() time.Time
	bcryptCost int
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(r *Repository) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			r.bcryptCost = cost
		}
	}
}

// New creates a Repository over d. hasher derives the public hash of tasks
// and programs.
func New(d *db.DB, hasher *opaque.Hasher, opts ...Option) *Repository {
	r := &Repository{
		db:         d,
		hasher:     hasher,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// timestamp returns the current time at the precision every backend keeps,
// so a row read back hashes the same as the row written.
func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

// requireIDs fails with a MissingEntityError unless every id exists in table.
func requireIDs(ctx context.Context, q db.Querier, table, entity string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("SELECT id FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	var found []int64
	if err := db.Select(ctx, q, &found, query, args...); err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}

	present := make(map[int64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	missing := &MissingEntityError{Entity: entity}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing.IDs = append(missing.IDs, id)
		}
	}
	return missing
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
