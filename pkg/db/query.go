package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by *DB, *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Select scans all rows of query into dest (a pointer to a slice).
func Select(ctx context.Context, q Querier, dest any, query string, args ...any) error {
	return q.SelectContext(ctx, dest, q.Rebind(query), args...)
}

// Get scans a single row into dest. It returns sql.ErrNoRows when nothing matches.
func Get(ctx context.Context, q Querier, dest any, query string, args ...any) error {
	return q.GetContext(ctx, dest, q.Rebind(query), args...)
}

// Insert runs an INSERT ... RETURNING id statement and returns the id.
func Insert(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Exec runs an UPDATE or DELETE and returns the number of affected rows.
func Exec(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count runs a SELECT COUNT(*) query.
func Count(ctx context.Context, q Querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowxContext(ctx, q.Rebind(query), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether query returns at least one row.
func Exists(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowxContext(ctx, q.Rebind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
