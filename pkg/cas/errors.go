package cas

import "errors"

var (
	ErrInvalidConfig   = errors.New("cas: invalid configuration")
	ErrUnsupportedType = errors.New("cas: unsupported content type")
	ErrTypeMismatch    = errors.New("cas: content does not match declared type")
	ErrFileTooLarge    = errors.New("cas: file exceeds size limit")
	ErrEmptyFile       = errors.New("cas: file is empty")
	ErrStream          = errors.New("cas: failed to read upload stream")
	ErrPersist         = errors.New("cas: failed to persist file")
	ErrRecordNotFound  = errors.New("cas: record not found")
	ErrHashConflict    = errors.New("cas: record with hash already exists")

	ErrNotMultipart   = errors.New("cas: request is not multipart/form-data")
	ErrWrongField     = errors.New("cas: unexpected file field")
	ErrDuplicateField = errors.New("cas: file field sent more than once")
	ErrMissingField   = errors.New("cas: file field is missing")
)
