package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal/model"
)

func resolver(paths map[int64]string) model.Resolver {
	return func(id int64) (string, bool) {
		p, ok := paths[id]
		return p, ok
	}
}

func TestDecodeTaskConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    model.TaskKind
		raw     string
		refs    []int64
		wantErr error
	}{
		{
			name: "quiz",
			kind: model.KindQuiz,
			raw:  `{"question":"Which?","imageId":3,"answers":[{"text":"a","correct":true},{"imageId":4},{"imageId":3}]}`,
			refs: []int64{3, 4},
		},
		{
			name: "memory",
			kind: model.KindMemory,
			raw:  `{"cards":[{"imageId":2},{"imageId":1,"caption":"cat"},{"imageId":2}]}`,
			refs: []int64{2, 1},
		},
		{
			name: "puzzle",
			kind: model.KindPuzzle,
			raw:  `{"imageId":9,"rows":3,"cols":4}`,
			refs: []int64{9},
		},
		{name: "unknown kind", kind: "essay", raw: `{}`, wantErr: model.ErrUnknownKind},
		{name: "unknown field", kind: model.KindPuzzle, raw: `{"imageId":9,"rows":3,"cols":4,"x":1}`, wantErr: model.ErrInvalidConfig},
		{name: "quiz without correct answer", kind: model.KindQuiz, raw: `{"question":"q","answers":[{"text":"a"},{"text":"b"}]}`, wantErr: model.ErrInvalidConfig},
		{name: "quiz with one answer", kind: model.KindQuiz, raw: `{"question":"q","answers":[{"text":"a","correct":true}]}`, wantErr: model.ErrInvalidConfig},
		{name: "empty answer", kind: model.KindQuiz, raw: `{"question":"q","answers":[{"text":"a","correct":true},{}]}`, wantErr: model.ErrInvalidConfig},
		{name: "memory with one card", kind: model.KindMemory, raw: `{"cards":[{"imageId":1}]}`, wantErr: model.ErrInvalidConfig},
		{name: "puzzle too large", kind: model.KindPuzzle, raw: `{"imageId":1,"rows":2,"cols":11}`, wantErr: model.ErrInvalidConfig},
		{name: "malformed", kind: model.KindPuzzle, raw: `{"imageId":`, wantErr: model.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := model.DecodeTaskConfig(tt.kind, []byte(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cfg.Kind())
			assert.Equal(t, tt.refs, cfg.ImageRefs())
		})
	}
}

func TestTaskKinds(t *testing.T) {
	t.Parallel()

	for _, k := range model.TaskKinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, model.TaskKind("essay").Valid())
}

func TestTaskPublic(t *testing.T) {
	t.Parallel()

	cfg, err := model.DecodeTaskConfig(model.KindQuiz, []byte(`{"question":"Which?","imageId":3,"answers":[{"text":"a","correct":true},{"imageId":4}]}`))
	require.NoError(t, err)
	task := model.Task{ID: 12, Hash: "abc", Title: "Colors", Kind: model.KindQuiz, Config: cfg}

	pub, err := task.Public(resolver(map[int64]string{3: "/files/aa/aa1.png", 4: "/files/bb/bb2.jpg"}))
	require.NoError(t, err)

	data, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"hash": "abc",
		"title": "Colors",
		"kind": "quiz",
		"config": {
			"question": "Which?",
			"image": "/files/aa/aa1.png",
			"answers": [
				{"text": "a", "correct": true},
				{"image": "/files/bb/bb2.jpg", "correct": false}
			]
		}
	}`, string(data))
	assert.NotContains(t, string(data), `"id"`)

	_, err = task.Public(resolver(map[int64]string{3: "/files/aa/aa1.png"}))
	require.ErrorIs(t, err, model.ErrUnresolvedImage)
}

func TestPuzzleAndMemoryPublic(t *testing.T) {
	t.Parallel()

	paths := resolver(map[int64]string{1: "/files/p1.png"})

	puzzle := &model.PuzzleConfig{ImageID: 1, Rows: 2, Cols: 3}
	out, err := puzzle.Public(paths)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"image": "/files/p1.png", "rows": 2, "cols": 3}, out)

	memory := &model.MemoryConfig{Cards: []model.MemoryCard{{ImageID: 1}, {ImageID: 2}}}
	_, err = memory.Public(paths)
	require.ErrorIs(t, err, model.ErrUnresolvedImage)
}
