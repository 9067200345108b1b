package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal/model"
)

type taskBody struct {
	ID     int64          `json:"id"`
	Hash   string         `json:"hash"`
	Title  string         `json:"title"`
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config"`
}

func (e *env) puzzle(title string, imageID int64, tok string) taskBody {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/tasks",
		fmt.Sprintf(`{"title":%q,"kind":"puzzle","config":{"imageId":%d,"rows":2,"cols":3}}`, title, imageID), tok)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[taskBody](e.t, w)
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))
	imageID := e.image("puzzle", tok)

	task := e.puzzle("<b>Cat</b> puzzle", imageID, tok)
	assert.Equal(t, "Cat puzzle", task.Title)
	assert.Equal(t, "puzzle", task.Kind)
	assert.NotEmpty(t, task.Hash)
	assert.Equal(t, float64(imageID), task.Config["imageId"])
	assert.Equal(t, float64(3), task.Config["cols"])

	quiz := fmt.Sprintf(`{"title":"Which one?","kind":"quiz","config":{
		"question":"Which is the cat?",
		"answers":[{"text":"This","imageId":%d,"correct":true},{"text":"That"}]
	}}`, imageID)
	w := e.do(http.MethodPost, "/api/tasks", quiz, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/tasks?kind=quiz", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[model.Page[taskBody]](t, w)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "quiz", page.Items[0].Kind)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, task.Hash, decode[taskBody](t, w).Hash)
}

func TestCreateTaskRejected(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))
	imageID := e.image("puzzle", tok)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown kind", `{"title":"x","kind":"crossword","config":{}}`, http.StatusBadRequest, "INVALID_PAYLOAD"},
		{"grid too small", fmt.Sprintf(`{"title":"x","kind":"puzzle","config":{"imageId":%d,"rows":1,"cols":2}}`, imageID), http.StatusBadRequest, "INVALID_PAYLOAD"},
		{"unknown config field", fmt.Sprintf(`{"title":"x","kind":"puzzle","config":{"imageId":%d,"rows":2,"cols":2,"tilt":1}}`, imageID), http.StatusBadRequest, "INVALID_PAYLOAD"},
		{"quiz without correct answer", `{"title":"x","kind":"quiz","config":{"question":"?","answers":[{"text":"a"},{"text":"b"}]}}`, http.StatusBadRequest, "INVALID_PAYLOAD"},
		{"missing image", `{"title":"x","kind":"puzzle","config":{"imageId":999,"rows":2,"cols":2}}`, http.StatusBadRequest, "MISSING_ENTITY"},
		{"missing memory image", fmt.Sprintf(`{"title":"x","kind":"memory","config":{"cards":[{"imageId":%d},{"imageId":998}]}}`, imageID), http.StatusBadRequest, "MISSING_ENTITY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := e.do(http.MethodPost, "/api/tasks", tt.body, tok)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestUpdateAndDeleteTask(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tok := e.token(e.user("ada@example.com", model.RoleMember))
	first := e.image("first", tok)
	second := e.image("second", tok)
	task := e.puzzle("Puzzle", first, tok)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := e.do(http.MethodPut, path,
		fmt.Sprintf(`{"title":"Puzzle v2","kind":"puzzle","config":{"imageId":%d,"rows":4,"cols":4}}`, second), tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[taskBody](t, w)
	assert.Equal(t, "Puzzle v2", updated.Title)
	assert.NotEqual(t, task.Hash, updated.Hash)

	// The first image is no longer referenced and can go.
	w = e.do(http.MethodDelete, fmt.Sprintf("/api/images/%d", first), "", tok)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodPost, "/api/programs", fmt.Sprintf(`{"title":"Week","tasks":[{"taskId":%d}]}`, task.ID), tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodDelete, path, "", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DELETE_RELATION", errorCode(t, w))

	w = e.do(http.MethodDelete, "/api/tasks/999", "", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
