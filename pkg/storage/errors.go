package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig = errors.New("storage: bucket and credentials are required")
	ErrEmptyStream   = errors.New("storage: empty stream")

	ErrUploadFailed = errors.New("storage: upload failed")
	ErrDeleteFailed = errors.New("storage: delete failed")
	ErrNotFound     = errors.New("storage: no such key")
	ErrAccessDenied = errors.New("storage: access denied")
)

// wrapS3Error tags err with op and, when the service said so, with
// ErrNotFound or ErrAccessDenied. The SDK error is kept as text only.
func wrapS3Error(err, op error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %w: %v", op, ErrNotFound, err)
	}

	var api smithy.APIError
	if errors.As(err, &api) {
		switch api.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w: %v", op, ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %w: %v", op, ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", op, err)
}
