package handlers

import (
	"errors"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/pkg/cas"
)

// apiError translates domain errors into the API taxonomy. Errors it does
// not recognize pass through and are reported as INTERNAL_ERROR.
func apiError(err error) error {
	if err == nil {
		return nil
	}

	var missing *repository.MissingEntityError
	switch {
	case errors.As(err, &missing):
		return atelier.ErrMissingEntity.With(missing.Entity).Wrap(err)
	case errors.Is(err, repository.ErrMissingEntity):
		return atelier.ErrMissingEntity.With("entity").Wrap(err)
	case errors.Is(err, repository.ErrNotFound):
		return atelier.ErrNotFound.Wrap(err)
	case errors.Is(err, repository.ErrDuplicateRelation):
		return atelier.ErrDuplicateRelation.Wrap(err)
	case errors.Is(err, repository.ErrRelationExists):
		return atelier.ErrDeleteRelation.Wrap(err)
	case errors.Is(err, repository.ErrInvalidCredentials):
		return atelier.ErrUnauthorized.Wrap(err)
	case errors.Is(err, repository.ErrUnknownOrder):
		return atelier.ErrInvalidPayload.Wrap(err)

	case errors.Is(err, model.ErrUnresolvedImage):
		return atelier.ErrMissingEntity.With("image").Wrap(err)
	case errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrInvalidConfig),
		errors.Is(err, model.ErrInvalidSchedule):
		return atelier.ErrInvalidPayload.Wrap(err)

	case errors.Is(err, cas.ErrNotMultipart):
		return atelier.ErrUnsupportedMediaType.Wrap(err)
	case errors.Is(err, cas.ErrWrongField),
		errors.Is(err, cas.ErrDuplicateField),
		errors.Is(err, cas.ErrMissingField):
		return atelier.ErrWrongFileField.With(uploadField).Wrap(err)
	case errors.Is(err, cas.ErrUnsupportedType),
		errors.Is(err, cas.ErrTypeMismatch),
		errors.Is(err, cas.ErrEmptyFile):
		return atelier.ErrUnsupportedImageType.Wrap(err)
	case errors.Is(err, cas.ErrStream), errors.Is(err, cas.ErrPersist):
		return atelier.ErrFileStream.Wrap(err)
	}
	return err
}
