package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskKind tags the shape of a task's configuration.
type TaskKind string

const (
	KindQuiz   TaskKind = "quiz"
	KindMemory TaskKind = "memory"
	KindPuzzle TaskKind = "puzzle"
)

// TaskKinds lists every kind in a stable order.
var TaskKinds = []TaskKind{KindQuiz, KindMemory, KindPuzzle}

// Valid reports whether k is a known kind.
func (k TaskKind) Valid() bool {
	switch k {
	case KindQuiz, KindMemory, KindPuzzle:
		return true
	}
	return false
}

// Resolver maps an image id to the public path of its file.
type Resolver func(imageID int64) (string, bool)

// TaskConfig is the per-kind configuration of a task.
type TaskConfig interface {
	Kind() TaskKind
	// Validate checks rules the payload schema cannot express.
	Validate() error
	// ImageRefs returns the referenced image ids, first occurrence first.
	ImageRefs() []int64
	// Public returns the config with image ids replaced by public paths.
	Public(resolve Resolver) (any, error)
	sealed()
}

// DecodeTaskConfig parses raw as the config of kind and validates it.
func DecodeTaskConfig(kind TaskKind, raw []byte) (TaskConfig, error) {
	var cfg TaskConfig
	switch kind {
	case KindQuiz:
		cfg = &QuizConfig{}
	case KindMemory:
		cfg = &MemoryConfig{}
	case KindPuzzle:
		cfg = &PuzzleConfig{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Task is a reusable exercise. Hash is its public identifier.
type Task struct {
	ID        int64      `json:"id"`
	Hash      string     `json:"hash"`
	Title     string     `json:"title"`
	Kind      TaskKind   `json:"kind"`
	Config    TaskConfig `json:"config"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PublicTask is a task as shown on public pages.
type PublicTask struct {
	Hash   string   `json:"hash"`
	Title  string   `json:"title"`
	Kind   TaskKind `json:"kind"`
	Config any      `json:"config"`
}

// Public converts t for the public view.
func (t *Task) Public(resolve Resolver) (PublicTask, error) {
	cfg, err := t.Config.Public(resolve)
	if err != nil {
		return PublicTask{}, err
	}
	return PublicTask{Hash: t.Hash, Title: t.Title, Kind: t.Kind, Config: cfg}, nil
}

// QuizAnswer is one answer option. It shows text, an image or both.
type QuizAnswer struct {
	Text    string `json:"text,omitempty"`
	ImageID *int64 `json:"imageId,omitempty"`
	Correct bool   `json:"correct"`
}

// QuizConfig asks a question with several answers.
type QuizConfig struct {
	Question string       `json:"question"`
	ImageID  *int64       `json:"imageId,omitempty"`
	Answers  []QuizAnswer `json:"answers"`
}

func (*QuizConfig) Kind() TaskKind { return KindQuiz }
func (*QuizConfig) sealed()        {}

func (c *QuizConfig) Validate() error {
	if strings.TrimSpace(c.Question) == "" {
		return fmt.Errorf("%w: quiz question is empty", ErrInvalidConfig)
	}
	if len(c.Answers) < 2 {
		return fmt.Errorf("%w: quiz needs at least two answers", ErrInvalidConfig)
	}
	correct := false
	for i, a := range c.Answers {
		if strings.TrimSpace(a.Text) == "" && a.ImageID == nil {
			return fmt.Errorf("%w: answer %d has neither text nor image", ErrInvalidConfig, i)
		}
		correct = correct || a.Correct
	}
	if !correct {
		return fmt.Errorf("%w: quiz has no correct answer", ErrInvalidConfig)
	}
	return nil
}

func (c *QuizConfig) ImageRefs() []int64 {
	var ids []int64
	if c.ImageID != nil {
		ids = append(ids, *c.ImageID)
	}
	for _, a := range c.Answers {
		if a.ImageID != nil {
			ids = append(ids, *a.ImageID)
		}
	}
	return UniqueIDs(ids)
}

type publicAnswer struct {
	Text    string `json:"text,omitempty"`
	Image   string `json:"image,omitempty"`
	Correct bool   `json:"correct"`
}

type publicQuiz struct {
	Question string         `json:"question"`
	Image    string         `json:"image,omitempty"`
	Answers  []publicAnswer `json:"answers"`
}

func (c *QuizConfig) Public(resolve Resolver) (any, error) {
	out := publicQuiz{Question: c.Question, Answers: make([]publicAnswer, 0, len(c.Answers))}
	var err error
	if out.Image, err = resolveOptional(resolve, c.ImageID); err != nil {
		return nil, err
	}
	for _, a := range c.Answers {
		pa := publicAnswer{Text: a.Text, Correct: a.Correct}
		if pa.Image, err = resolveOptional(resolve, a.ImageID); err != nil {
			return nil, err
		}
		out.Answers = append(out.Answers, pa)
	}
	return out, nil
}

// MemoryCard is one card of a memory game. Each card appears twice on the board.
type MemoryCard struct {
	ImageID int64  `json:"imageId"`
	Caption string `json:"caption,omitempty"`
}

// MemoryConfig is a pair-matching game.
type MemoryConfig struct {
	Cards []MemoryCard `json:"cards"`
}

func (*MemoryConfig) Kind() TaskKind { return KindMemory }
func (*MemoryConfig) sealed()        {}

func (c *MemoryConfig) Validate() error {
	if len(c.Cards) < 2 {
		return fmt.Errorf("%w: memory needs at least two cards", ErrInvalidConfig)
	}
	for i, card := range c.Cards {
		if card.ImageID <= 0 {
			return fmt.Errorf("%w: card %d has no image", ErrInvalidConfig, i)
		}
	}
	return nil
}

func (c *MemoryConfig) ImageRefs() []int64 {
	ids := make([]int64, 0, len(c.Cards))
	for _, card := range c.Cards {
		ids = append(ids, card.ImageID)
	}
	return UniqueIDs(ids)
}

type publicCard struct {
	Image   string `json:"image"`
	Caption string `json:"caption,omitempty"`
}

func (c *MemoryConfig) Public(resolve Resolver) (any, error) {
	cards := make([]publicCard, 0, len(c.Cards))
	for _, card := range c.Cards {
		p, err := resolveImage(resolve, card.ImageID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, publicCard{Image: p, Caption: card.Caption})
	}
	return map[string]any{"cards": cards}, nil
}

// Puzzle grid bounds.
const (
	MinPuzzleSide = 2
	MaxPuzzleSide = 10
)

// PuzzleConfig cuts one image into a Rows x Cols grid.
type PuzzleConfig struct {
	ImageID int64 `json:"imageId"`
	Rows    int   `json:"rows"`
	Cols    int   `json:"cols"`
}

func (*PuzzleConfig) Kind() TaskKind { return KindPuzzle }
func (*PuzzleConfig) sealed()        {}

func (c *PuzzleConfig) Validate() error {
	if c.ImageID <= 0 {
		return fmt.Errorf("%w: puzzle has no image", ErrInvalidConfig)
	}
	for _, side := range []int{c.Rows, c.Cols} {
		if side < MinPuzzleSide || side > MaxPuzzleSide {
			return fmt.Errorf("%w: puzzle sides must be between %d and %d", ErrInvalidConfig, MinPuzzleSide, MaxPuzzleSide)
		}
	}
	return nil
}

func (c *PuzzleConfig) ImageRefs() []int64 {
	return []int64{c.ImageID}
}

func (c *PuzzleConfig) Public(resolve Resolver) (any, error) {
	p, err := resolveImage(resolve, c.ImageID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"image": p, "rows": c.Rows, "cols": c.Cols}, nil
}

func resolveImage(resolve Resolver, id int64) (string, error) {
	p, ok := resolve(id)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnresolvedImage, id)
	}
	return p, nil
}

func resolveOptional(resolve Resolver, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	return resolveImage(resolve, *id)
}

// UniqueIDs drops repeated ids, keeping the first occurrence.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
