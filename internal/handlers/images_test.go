package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal/model"
)

type imageBody struct {
	ID     int64         `json:"id"`
	Hash   string        `json:"hash"`
	Path   string        `json:"path"`
	URL    string        `json:"url"`
	Size   int64         `json:"size"`
	Labels []model.Label `json:"labels"`
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))
	data := pngBytes("cat picture")

	w := e.upload("file", "cat.png", "image/png", data, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	img := decode[imageBody](t, w)
	assert.Equal(t, int64(len(data)), img.Size)
	assert.Equal(t, "/files/"+img.Path, img.URL)
	assert.Empty(t, img.Labels)

	file := e.serve(httptest.NewRequest(http.MethodGet, img.URL, nil))
	require.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, data, file.Body.Bytes())

	again := e.upload("file", "same.png", "image/png", data, tok)
	require.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, img.ID, decode[imageBody](t, again).ID)

	list := e.do(http.MethodGet, "/api/images", "", tok)
	require.Equal(t, http.StatusOK, list.Code)
	page := decode[model.Page[imageBody]](t, list)
	assert.Equal(t, 1, page.Total)
}

func TestUploadImageRejected(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))

	tests := []struct {
		name        string
		field       string
		contentType string
		data        []byte
		status      int
		code        string
	}{
		{"wrong field", "image", "image/png", pngBytes("a"), http.StatusUnprocessableEntity, "WRONG_FILE_FIELD"},
		{"type not allowed", "file", "application/pdf", []byte("%PDF-1.4"), http.StatusUnprocessableEntity, "UNSUPPORTED_IMAGE_TYPE"},
		{"declared type lies", "file", "image/png", []byte("GIF89a not really a png"), http.StatusUnprocessableEntity, "UNSUPPORTED_IMAGE_TYPE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := e.upload(tt.field, "x.png", tt.contentType, tt.data, tok)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := e.do(http.MethodPost, "/api/images", `{"file":"nope"}`, tok)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", errorCode(t, w))
}

func TestUploadImageTooLarge(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))

	data := pngBytes(strings.Repeat("x", int(e.store.MaxSize())))
	w := e.upload("file", "big.png", "image/png", data, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "HIT_FILE_SIZE_LIMIT", errorCode(t, w))
}

func TestImageLabels(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))
	imageID := e.image("labelled", tok)

	w := e.do(http.MethodPost, "/api/labels", `{"name":"cats"}`, tok)
	require.Equal(t, http.StatusCreated, w.Code)
	label := decode[model.Label](t, w)

	pair := fmt.Sprintf("/api/images/%d/labels/%d", imageID, label.ID)
	w = e.do(http.MethodPost, pair, "", tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	img := decode[imageBody](t, w)
	require.Len(t, img.Labels, 1)
	assert.Equal(t, "cats", img.Labels[0].Name)

	w = e.do(http.MethodPost, pair, "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DUPLICATE_RELATION", errorCode(t, w))

	w = e.do(http.MethodPost, fmt.Sprintf("/api/images/%d/labels/999", imageID), "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_ENTITY", errorCode(t, w))

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/labels/%d", label.ID), "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DELETE_RELATION", errorCode(t, w))

	w = e.do(http.MethodDelete, pair, "", tok)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(http.MethodDelete, pair, "", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteImage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))

	used := e.image("used", tok)
	w := e.do(http.MethodPost, "/api/tasks",
		fmt.Sprintf(`{"title":"Puzzle","kind":"puzzle","config":{"imageId":%d,"rows":3,"cols":3}}`, used), tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/images/%d", used), "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DELETE_RELATION", errorCode(t, w))

	free := e.image("free", tok)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/images/%d", free), "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	url := decode[imageBody](t, w).URL

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/images/%d", free), "", tok)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/images/%d", free), "", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	file := e.serve(httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusNotFound, file.Code)
}
