package cas

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
)

// IngestMultipart streams the single file part named field from a
// multipart/form-data request. Non-file parts are skipped. The file is only
// committed once the whole body has been read, so a second file part rejects
// the upload without leaving anything behind.
func (s *Store) IngestMultipart(ctx context.Context, r *http.Request, field string) (*Asset, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, ErrNotMultipart
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, ErrNotMultipart
	}

	var in *ingestion
	abort := func(err error) (*Asset, error) {
		if in != nil {
			in.fail(err)
		}
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return abort(errors.Join(ErrStream, err))
		}

		if part.FileName() == "" {
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}
		if part.FormName() != field {
			part.Close()
			return abort(ErrWrongField)
		}
		if in != nil {
			part.Close()
			return abort(ErrDuplicateField)
		}

		in = s.begin(Upload{
			Reader:      part,
			Filename:    part.FileName(),
			ContentType: partContentType(part),
		})
		in.run(ctx, stateFinalizing)
		part.Close()
		if in.terminal() {
			return in.result()
		}
	}

	if in == nil {
		return nil, ErrMissingField
	}
	in.run(ctx, stateDone)
	return in.result()
}

func partContentType(p *multipart.Part) string {
	return p.Header.Get("Content-Type")
}
