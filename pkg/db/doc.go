// Package db wraps the relational store behind a single *DB handle built on
// [github.com/jmoiron/sqlx].
//
// Two backends are supported and selected by Config.URL:
//
//   - postgres:// URLs open a [github.com/jackc/pgx/v5/pgxpool] pool with startup
//     retry and bridge it to database/sql through pgx's stdlib adapter;
//   - sqlite:// URLs open an embedded [modernc.org/sqlite] database with foreign
//     keys enforced. It is used for local development and for tests.
//
// Queries are written once with '?' placeholders. Select, Get, Insert, Exec and
// Count rebind them for the active driver and accept either the *DB or an
// open *sqlx.Tx, so the same repository code runs inside and outside
// transactions:
//
//	err := db.WithTx(ctx, handle, func(tx *sqlx.Tx) error {
//		id, err := db.Insert(ctx, tx, "INSERT INTO labels (name) VALUES (?) RETURNING id", name)
//		...
//	})
//
// Constraint failures from either backend are classified with
// IsUniqueViolation and IsForeignKeyViolation.
//
// Migrations are embedded .sql files applied with a [github.com/pressly/goose/v3]
// provider (Migrate, MigrationStatus).
//
// # Configuration
//
//	DATABASE_URL                - connection URL (required)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: schema_migrations)
//	DATABASE_MAX_OPEN_CONNS     - PostgreSQL pool size (default: 10)
//	DATABASE_MIN_CONNS          - PostgreSQL idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - PostgreSQL pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - PostgreSQL max idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - PostgreSQL max lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - connection attempts at startup (default: 3)
//	DATABASE_RETRY_INTERVAL     - base retry interval (default: 5s)
package db
