package model

import "errors"

var (
	ErrUnknownKind     = errors.New("model: unknown task kind")
	ErrInvalidConfig   = errors.New("model: invalid task config")
	ErrUnresolvedImage = errors.New("model: task references an unknown image")
	ErrInvalidSchedule = errors.New("model: program ends before it starts")
)
