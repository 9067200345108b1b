package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a DB. Values match goose dialect names.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

const sqliteDriver = "sqlite"

func init() {
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

// DB is the shared handle. Queries are written with '?' placeholders and
// rebound for the active driver by the helpers in this package.
type DB struct {
	*sqlx.DB
	dialect Dialect
	pool    *pgxpool.Pool
}

// New wraps an already opened handle, for example a sqlmock connection in tests.
func New(x *sqlx.DB, dialect Dialect) *DB {
	return &DB{DB: x, dialect: dialect}
}

// Dialect reports which backend the handle talks to.
func (d *DB) Dialect() Dialect { return d.dialect }

// Close releases the handle and, for PostgreSQL, the underlying pool.
func (d *DB) Close() error {
	err := d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// Connect opens the database selected by cfg.URL.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	switch {
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		return connectPostgres(ctx, cfg)
	case strings.HasPrefix(cfg.URL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(cfg.URL, "sqlite://"))
	case strings.HasPrefix(cfg.URL, "file:"):
		return OpenSQLite(ctx, cfg.URL)
	default:
		return nil, ErrUnsupportedURL
	}
}

// connectPostgres establishes a pgx pool with retry and exposes it through database/sql.
func connectPostgres(ctx context.Context, cfg Config) (*DB, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MinConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	// Attempt i waits (i+1)*RetryInterval before the next try.
	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return &DB{
					DB:      sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
					dialect: Postgres,
					pool:    pool,
				}, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToOpenDBConnection
}

// OpenSQLite opens (creating if needed) a SQLite database at path with foreign
// keys enforced. The pool is limited to one connection so writers serialize
// instead of failing with SQLITE_BUSY.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	sqlDB, err := sqlx.ConnectContext(ctx, sqliteDriver, dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}
	sqlDB.SetMaxOpenConns(1)

	return &DB{DB: sqlDB, dialect: SQLite}, nil
}

// Healthcheck returns a readiness probe for d.
func Healthcheck(d *DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if d == nil {
			return ErrHealthcheckFailed
		}
		if err := d.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
