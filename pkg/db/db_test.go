package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/pkg/logger"
)

var testMigrations = fstest.MapFS{
	"00001_init.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE parents (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE);
CREATE TABLE children (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id INTEGER NOT NULL REFERENCES parents (id)
);

-- +goose Down
DROP TABLE children;
DROP TABLE parents;
`)},
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	d, err := Connect(ctx, Config{URL: "sqlite://" + filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, Migrate(ctx, d, testMigrations, "schema_migrations", logger.NewNope()))
	return d
}

func TestConnectRejectsUnknownScheme(t *testing.T) {
	t.Parallel()
	_, err := Connect(context.Background(), Config{URL: "mysql://localhost/db"})
	require.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestHelpers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := openTestDB(t)
	assert.Equal(t, SQLite, d.Dialect())

	id, err := Insert(ctx, d, "INSERT INTO parents (name) VALUES (?) RETURNING id", "a")
	require.NoError(t, err)
	assert.Positive(t, id)

	var name string
	require.NoError(t, Get(ctx, d, &name, "SELECT name FROM parents WHERE id = ?", id))
	assert.Equal(t, "a", name)

	n, err := Count(ctx, d, "SELECT COUNT(*) FROM parents")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := Exists(ctx, d, "SELECT 1 FROM parents WHERE id = ?", id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(ctx, d, "SELECT 1 FROM parents WHERE id = ?", id+100)
	require.NoError(t, err)
	assert.False(t, ok)

	err = Get(ctx, d, &name, "SELECT name FROM parents WHERE id = ?", id+100)
	assert.True(t, IsNoRows(err))

	affected, err := Exec(ctx, d, "UPDATE parents SET name = ? WHERE id = ?", "b", id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	var names []string
	require.NoError(t, Select(ctx, d, &names, "SELECT name FROM parents ORDER BY id"))
	assert.Equal(t, []string{"b"}, names)
}

func TestConstraintClassification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := openTestDB(t)

	_, err := Insert(ctx, d, "INSERT INTO parents (name) VALUES (?) RETURNING id", "dup")
	require.NoError(t, err)

	_, err = Insert(ctx, d, "INSERT INTO parents (name) VALUES (?) RETURNING id", "dup")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = Insert(ctx, d, "INSERT INTO children (parent_id) VALUES (?) RETURNING id", 9999)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("commits", func(t *testing.T) {
		t.Parallel()
		d := openTestDB(t)
		err := WithTx(ctx, d, func(tx *sqlx.Tx) error {
			_, err := Insert(ctx, tx, "INSERT INTO parents (name) VALUES (?) RETURNING id", "x")
			return err
		})
		require.NoError(t, err)
		n, err := Count(ctx, d, "SELECT COUNT(*) FROM parents")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()
		d := openTestDB(t)
		boom := errors.New("boom")
		err := WithTx(ctx, d, func(tx *sqlx.Tx) error {
			if _, err := Insert(ctx, tx, "INSERT INTO parents (name) VALUES (?) RETURNING id", "x"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		n, err := Count(ctx, d, "SELECT COUNT(*) FROM parents")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("rolls back and repanics", func(t *testing.T) {
		t.Parallel()
		d := openTestDB(t)
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = WithTx(ctx, d, func(tx *sqlx.Tx) error {
				_, _ = Insert(ctx, tx, "INSERT INTO parents (name) VALUES (?) RETURNING id", "x")
				panic("kaboom")
			})
		})
		n, err := Count(ctx, d, "SELECT COUNT(*) FROM parents")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestWithTxRollbackWithMock(t *testing.T) {
	t.Parallel()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	d := &DB{DB: sqlx.NewDb(mockDB, "sqlmock"), dialect: Postgres}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM parents").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = WithTx(context.Background(), d, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "DELETE FROM parents")
		return err
	})
	require.EqualError(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommitFailure(t *testing.T) {
	t.Parallel()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	d := &DB{DB: sqlx.NewDb(mockDB, "sqlmock"), dialect: Postgres}
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err = WithTx(context.Background(), d, func(*sqlx.Tx) error { return nil })
	require.ErrorIs(t, err, ErrCommitTx)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationStatus(t *testing.T) {
	t.Parallel()
	d := openTestDB(t)
	statuses, err := MigrationStatus(context.Background(), d, testMigrations, "schema_migrations")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.EqualValues(t, 1, statuses[0].Source.Version)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, Healthcheck(nil)(context.Background()), ErrHealthcheckFailed)
	d := openTestDB(t)
	assert.NoError(t, Healthcheck(d)(context.Background()))
}
