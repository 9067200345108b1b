package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/handlers"
	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/opaque"
	"github.com/dmitrymomot/atelier/pkg/schema"
	"github.com/dmitrymomot/atelier/pkg/token"
)

const testPassword = "correct horse battery"

// stepClock advances one second per call so every write gets a distinct timestamp.
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

// env is a fully wired API over a temp SQLite database.
type env struct {
	t       *testing.T
	handler http.Handler
	repo    *repository.Repository
	signer  *token.Signer
	store   *cas.Store
	cache   *cache.Memory[json.RawMessage]
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

func newEnvWith(t *testing.T, limiter *middlewares.RateLimiter) *env {
	t.Helper()
	ctx := context.Background()

	d, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "atelier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, repository.Migrate(ctx, d, "schema_migrations", logger.NewNope()))

	hasher, err := opaque.New("handlers-test-salt")
	require.NoError(t, err)
	repo := repository.New(d, hasher,
		repository.WithClock(stepClock()),
		repository.WithBcryptCost(bcrypt.MinCost),
	)

	signer, err := token.New(token.Config{Secret: strings.Repeat("s", token.MinSecretLength), TTL: time.Hour})
	require.NoError(t, err)

	store, err := cas.New(cas.Config{Root: t.TempDir()}, repo.Assets())
	require.NoError(t, err)

	memory := cache.NewMemory[json.RawMessage](time.Minute, 100, time.Minute)
	t.Cleanup(func() { _ = memory.Close() })

	schemas := schema.NewCompiler()
	app := atelier.New(
		atelier.WithLogger(logger.NewNope()),
		atelier.WithDB(d),
		atelier.WithTokens(signer),
		atelier.WithSchemas(schemas),
		atelier.WithCache(cache.NewLoader[json.RawMessage](memory, time.Minute)),
		atelier.WithAssets(store),
		atelier.WithCookies(cookie.Config{}),
		atelier.WithMount("/files", http.StripPrefix("/files", store.Handler())),
		atelier.WithHandlers(
			handlers.NewAuth(repo, schemas, limiter),
			handlers.NewUsers(repo, schemas),
			handlers.NewLabels(repo, schemas),
			handlers.NewImages(repo, schemas),
			handlers.NewTasks(repo, schemas),
			handlers.NewPrograms(repo, schemas),
			handlers.NewPublic(repo),
		),
	)

	return &env{t: t, handler: app.Handler(), repo: repo, signer: signer, store: store, cache: memory}
}

func (e *env) user(email, role string) *model.User {
	e.t.Helper()
	u, err := e.repo.CreateUser(context.Background(), repository.UserInput{
		Email:    email,
		Name:     "Test User",
		Password: testPassword,
		Role:     role,
	})
	require.NoError(e.t, err)
	return u
}

func (e *env) token(u *model.User) string {
	e.t.Helper()
	raw, err := e.signer.Sign(u.ID, u.Role)
	require.NoError(e.t, err)
	return raw
}

func (e *env) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// do sends a JSON request, authenticated with tok unless it is empty.
func (e *env) do(method, path, body, tok string) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return e.serve(req)
}

// upload posts a single file part.
func (e *env) upload(field, filename, contentType string, data []byte, tok string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(e.t, err)
	_, err = part.Write(data)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	return e.serve(req)
}

// image uploads a PNG with payload and returns its id.
func (e *env) image(payload, tok string) int64 {
	e.t.Helper()
	w := e.upload("file", payload+".png", "image/png", pngBytes(payload), tok)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID int64 `json:"id"`
	}](e.t, w).ID
}

func pngBytes(payload string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), []byte(payload)...)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// errorCode returns the "error" field of an error body.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Error string `json:"error"`
	}](t, w).Error
}
