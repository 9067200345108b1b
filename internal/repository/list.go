package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/pkg/db"
)

// Listing defaults.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// listSpec describes one paginated listing.
type listSpec struct {
	table   string
	columns string
	// search is the column q matches against; empty disables search.
	search string
	// orders maps public field names to columns.
	orders map[string]string
	where  []string
	args   []any
}

func listPage[T any](ctx context.Context, q db.Querier, spec listSpec, p model.ListParams) (model.Page[T], error) {
	page := model.Page[T]{Items: make([]T, 0)}

	column := "id"
	if p.OrderBy != "" {
		c, ok := spec.orders[p.OrderBy]
		if !ok {
			return page, fmt.Errorf("%w: %q", ErrUnknownOrder, p.OrderBy)
		}
		column = c
	}

	where := slices.Clone(spec.where)
	args := slices.Clone(spec.args)
	if p.Query != "" && spec.search != "" {
		where = append(where, "LOWER("+spec.search+") LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(p.Query))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	total, err := db.Count(ctx, q, "SELECT COUNT(*) FROM "+spec.table+clause, args...)
	if err != nil {
		return page, err
	}
	page.Total = total

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset := max(p.Offset, 0)

	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	query := "SELECT " + spec.columns + " FROM " + spec.table + clause +
		" ORDER BY " + column + " " + dir + ", id " + dir + " LIMIT ? OFFSET ?"
	if err := db.Select(ctx, q, &page.Items, query, append(args, limit, offset)...); err != nil {
		return page, err
	}
	return page, nil
}
