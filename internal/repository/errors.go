package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("repository: not found")
	ErrDuplicateEmail     = errors.New("repository: email already registered")
	ErrDuplicateLabel     = errors.New("repository: label name already exists")
	ErrDuplicateRelation  = errors.New("repository: relation already exists")
	ErrRelationExists     = errors.New("repository: row is still referenced")
	ErrMissingEntity      = errors.New("repository: referenced entity does not exist")
	ErrInvalidCredentials = errors.New("repository: invalid email or password")
	ErrUnknownOrder       = errors.New("repository: unknown order field")
	ErrCorruptRow         = errors.New("repository: stored row cannot be decoded")
)

// MissingEntityError names the kind of entity and the ids that were not found.
type MissingEntityError struct {
	Entity string
	IDs    []int64
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("repository: %s %v does not exist", e.Entity, e.IDs)
}

func (e *MissingEntityError) Is(target error) bool {
	return target == ErrMissingEntity
}
