package repository_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/opaque"
)

const testSalt = "repository-test-salt"

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newHasher(t *testing.T) *opaque.Hasher {
	t.Helper()
	h, err := opaque.New(testSalt)
	require.NoError(t, err)
	return h
}

func openRepo(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()
	d, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "atelier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, repository.Migrate(ctx, d, "schema_migrations", logger.NewNope()))

	return repository.New(d, newHasher(t),
		repository.WithClock(stepClock()),
		repository.WithBcryptCost(bcrypt.MinCost),
	)
}

func createUser(t *testing.T, r *repository.Repository, email string) *model.User {
	t.Helper()
	u, err := r.CreateUser(context.Background(), repository.UserInput{Email: email, Name: "Test", Password: "correct horse"})
	require.NoError(t, err)
	return u
}

func createPuzzle(t *testing.T, r *repository.Repository, title string, imageID int64) *model.Task {
	t.Helper()
	task, err := r.CreateTask(context.Background(), repository.TaskInput{
		Title:  title,
		Config: &model.PuzzleConfig{ImageID: imageID, Rows: 2, Cols: 2},
	})
	require.NoError(t, err)
	return task
}

func createImage(t *testing.T, r *repository.Repository, hash string) int64 {
	t.Helper()
	a, err := r.Assets().Insert(context.Background(), assetFor(hash))
	require.NoError(t, err)
	return a.ID
}
