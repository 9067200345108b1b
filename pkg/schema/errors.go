package schema

import (
	"errors"
	"strings"
)

var (
	ErrCompile = errors.New("schema: failed to compile")
	ErrInvalid = errors.New("schema: validation failed")
)

// ValidationError lists the instance locations (JSON pointers) that failed.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "schema: " + e.Message
	}
	return "schema: " + e.Message + " at " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrInvalid) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
