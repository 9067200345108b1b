package cas

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/storage"
)

type state uint8

const (
	stateReceiving state = iota
	stateHashing
	stateFinalizing
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateReceiving:
		return "receiving"
	case stateHashing:
		return "hashing"
	case stateFinalizing:
		return "finalizing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// ingestion tracks one upload from first byte to its single resolution.
type ingestion struct {
	store  *Store
	upload Upload
	state  state

	tmp         *os.File
	digest      hash.Hash
	contentType string
	size        int64
	hash        string

	asset *Asset
	err   error
}

// Ingest streams up into the store and returns the record for its content.
// Uploading content that already exists returns the existing record with a
// fresh UpdatedAt and writes nothing new to disk.
func (s *Store) Ingest(ctx context.Context, up Upload) (*Asset, error) {
	in := s.begin(up)
	in.run(ctx, stateDone)
	return in.result()
}

func (s *Store) begin(up Upload) *ingestion {
	return &ingestion{store: s, upload: up, state: stateReceiving, digest: sha1.New()}
}

func (in *ingestion) terminal() bool {
	return in.state == stateDone || in.state == stateFailed
}

// run advances the machine until it reaches target or resolves.
func (in *ingestion) run(ctx context.Context, target state) {
	for !in.terminal() && in.state != target {
		switch in.state {
		case stateReceiving:
			in.receive(ctx)
		case stateHashing:
			in.finishHash()
		case stateFinalizing:
			in.finalize(ctx)
		}
	}
}

func (in *ingestion) result() (*Asset, error) {
	switch in.state {
	case stateDone:
		return in.asset, nil
	case stateFailed:
		return nil, in.err
	}
	return nil, fmt.Errorf("cas: ingestion stopped in state %s", in.state)
}

func (in *ingestion) receive(ctx context.Context) {
	declared := storage.NormalizeMIME(in.upload.ContentType)
	if declared == storage.MIMEOctetStream {
		declared = ""
	}
	if declared != "" && !in.store.allows(declared) {
		in.fail(ErrUnsupportedType)
		return
	}

	sniffed, r, err := storage.Sniff(contextReader{ctx: ctx, r: in.upload.Reader})
	switch {
	case errors.Is(err, storage.ErrEmptyStream):
		in.fail(ErrEmptyFile)
		return
	case err != nil:
		in.fail(errors.Join(ErrStream, err))
		return
	}

	if declared == "" {
		declared = sniffed
	}
	if !in.store.allows(declared) {
		in.fail(ErrUnsupportedType)
		return
	}
	if sniffed != declared {
		in.fail(ErrTypeMismatch)
		return
	}
	in.contentType = declared

	tmp, err := os.CreateTemp(in.store.tmpDir, "upload-*")
	if err != nil {
		in.fail(errors.Join(ErrPersist, err))
		return
	}
	in.tmp = tmp

	n, err := io.Copy(io.MultiWriter(tmp, in.digest), io.LimitReader(r, in.store.maxSize+1))
	if err != nil {
		in.fail(errors.Join(ErrStream, err))
		return
	}
	if n > in.store.maxSize {
		in.fail(ErrFileTooLarge)
		return
	}

	in.size = n
	in.state = stateHashing
}

func (in *ingestion) finishHash() {
	in.hash = hex.EncodeToString(in.digest.Sum(nil))
	if err := in.tmp.Close(); err != nil {
		in.fail(errors.Join(ErrPersist, err))
		return
	}
	in.state = stateFinalizing
}

func (in *ingestion) finalize(ctx context.Context) {
	records := in.store.records

	existing, err := records.FindByHash(ctx, in.hash)
	switch {
	case err == nil:
		in.discardTemp()
		in.touch(ctx, existing.ID)
		return
	case !errors.Is(err, ErrRecordNotFound):
		in.fail(err)
		return
	}

	stored := StoredPath(in.hash, storage.ExtFromMIME(in.contentType))
	if err := in.store.place(in.tmp.Name(), stored); err != nil {
		in.fail(errors.Join(ErrPersist, err))
		return
	}
	in.tmp = nil

	// A canonical file left behind by a failed insert below holds the same bytes
	// any later upload of this hash would write, so it is kept.
	asset, err := records.Insert(ctx, Asset{
		Hash:             in.hash,
		StoredPath:       stored,
		OriginalFilename: cleanFilename(in.upload.Filename),
		ContentType:      in.contentType,
		Size:             in.size,
	})
	switch {
	case errors.Is(err, ErrHashConflict):
		winner, err := records.FindByHash(ctx, in.hash)
		if err != nil {
			in.fail(err)
			return
		}
		in.touch(ctx, winner.ID)
	case err != nil:
		in.fail(err)
	default:
		in.store.mirrorFile(ctx, asset)
		in.resolve(asset)
	}
}

func (in *ingestion) touch(ctx context.Context, id int64) {
	asset, err := in.store.records.Touch(ctx, id)
	if err != nil {
		in.fail(err)
		return
	}
	in.resolve(asset)
}

func (in *ingestion) resolve(a *Asset) {
	if in.terminal() {
		return
	}
	in.asset = a
	in.state = stateDone
}

// fail resolves the ingestion with err and removes any partial temp file.
func (in *ingestion) fail(err error) {
	if in.terminal() {
		return
	}
	in.discardTemp()
	in.err = err
	in.state = stateFailed
	in.store.log.Debug("upload failed",
		slog.String("filename", in.upload.Filename),
		logger.Err(err),
	)
}

func (in *ingestion) discardTemp() {
	if in.tmp == nil {
		return
	}
	_ = in.tmp.Close()
	_ = os.Remove(in.tmp.Name())
	in.tmp = nil
}

func cleanFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return ""
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

// contextReader stops a stream as soon as ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
