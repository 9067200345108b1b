package internal

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// Programming errors raised by the router, composer and context.
var (
	ErrEmptyPipeline     = errors.New("atelier: route has no stages")
	ErrNilStage          = errors.New("atelier: nil stage")
	ErrDuplicateRoute    = errors.New("atelier: route already registered")
	ErrInvalidPattern    = errors.New("atelier: invalid route pattern")
	ErrUnsupportedMethod = errors.New("atelier: unsupported http method")
	ErrNoResponse        = errors.New("atelier: pipeline finished without a response")
	ErrNextCalledTwice   = errors.New("atelier: next called more than once")
	ErrAlreadyResponded  = errors.New("atelier: response already written")
)

// Error is an API error with a stable machine code, a message template and
// an HTTP status. Values are never mutated: With and Wrap return copies.
type Error struct {
	// Err is the underlying cause. It is logged, never sent to clients.
	Err error

	// Details is optional structured data sent next to the message.
	Details any

	Code     string
	Template string
	Args     []any
	Status   int
}

// NewError creates an Error. Template may contain fmt verbs filled by With.
func NewError(status int, code, template string) *Error {
	return &Error{Status: status, Code: code, Template: template}
}

// Message formats Template with Args.
func (e *Error) Message() string {
	if len(e.Args) == 0 {
		return e.Template
	}
	return fmt.Sprintf(e.Template, e.Args...)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message() + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) StatusCode() int {
	return e.Status
}

// With returns a copy carrying args for the message template.
func (e *Error) With(args ...any) *Error {
	cp := *e
	cp.Args = slices.Clone(args)
	return &cp
}

// Wrap returns a copy with err as the cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithDetails returns a copy carrying details for the response body.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// API error taxonomy.
var (
	ErrInvalidPayload       = NewError(http.StatusBadRequest, "INVALID_PAYLOAD", "invalid payload")
	ErrUnauthorized         = NewError(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbidden            = NewError(http.StatusForbidden, "FORBIDDEN", "access denied")
	ErrNotFound             = NewError(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrDuplicateLabelName   = NewError(http.StatusBadRequest, "DUPLICATE_LABEL_NAME", "label %q already exists")
	ErrDuplicateEmail       = NewError(http.StatusBadRequest, "DUPLICATE_EMAIL", "email %q is already registered")
	ErrDuplicateRelation    = NewError(http.StatusBadRequest, "DUPLICATE_RELATION", "relation already exists")
	ErrMissingEntity        = NewError(http.StatusBadRequest, "MISSING_ENTITY", "referenced %s does not exist")
	ErrDeleteRelation       = NewError(http.StatusBadRequest, "DELETE_RELATION", "cannot delete, relation exists")
	ErrUnsupportedMediaType = NewError(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "expected multipart/form-data")
	ErrUnsupportedImageType = NewError(http.StatusUnprocessableEntity, "UNSUPPORTED_IMAGE_TYPE", "unsupported image type")
	ErrWrongFileField       = NewError(http.StatusUnprocessableEntity, "WRONG_FILE_FIELD", "expected a single file in field %q")
	ErrHitFileSizeLimit     = NewError(http.StatusUnprocessableEntity, "HIT_FILE_SIZE_LIMIT", "file exceeds the limit of %d bytes")
	ErrFileStream           = NewError(http.StatusInternalServerError, "FILE_STREAM_ERROR", "failed to store the uploaded file")
	ErrFailedSerialization  = NewError(http.StatusInternalServerError, "FAILED_SERIALIZATION", "failed to serialize response")
	ErrTooManyRequests      = NewError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests")
	ErrInternal             = NewError(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
)

// AsError returns err as an *Error, falling back to ErrInternal wrapping err.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}
