package cas

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/storage"
)

const (
	tmpDirName     = ".tmp"
	defaultMaxSize = 10 << 20
)

// DefaultAllowedTypes is used when Config.AllowedTypes is empty.
var DefaultAllowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Store keeps exactly one file on disk per distinct content.
type Store struct {
	root    string
	tmpDir  string
	maxSize int64
	allowed []string
	records Records
	mirror  Mirror
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMirror copies every newly stored file to m.
func WithMirror(m Mirror) Option {
	return func(s *Store) {
		s.mirror = m
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Store rooted at cfg.Root, creating the directory tree if needed.
func New(cfg Config, records Records, opts ...Option) (*Store, error) {
	if cfg.Root == "" || records == nil {
		return nil, ErrInvalidConfig
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	s := &Store{
		root:    root,
		tmpDir:  filepath.Join(root, tmpDirName),
		maxSize: cfg.MaxSize,
		allowed: cfg.AllowedTypes,
		records: records,
		log:     logger.NewNope(),
	}
	if s.maxSize <= 0 {
		s.maxSize = defaultMaxSize
	}
	if len(s.allowed) == 0 {
		s.allowed = DefaultAllowedTypes
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(s.tmpDir, 0o755); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return s, nil
}

// Root returns the absolute directory holding canonical files.
func (s *Store) Root() string { return s.root }

// MaxSize returns the upload size limit in bytes.
func (s *Store) MaxSize() int64 { return s.maxSize }

// Path returns the absolute filesystem path of a stored file.
func (s *Store) Path(storedPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+storedPath)))
}

// Remove deletes a canonical file and its mirror copy.
// A file that is already gone is not an error.
func (s *Store) Remove(ctx context.Context, storedPath string) error {
	if err := os.Remove(s.Path(storedPath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cas: remove %s: %w", storedPath, err)
	}
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, storedPath); err != nil {
			s.log.WarnContext(ctx, "mirror delete failed",
				slog.String("path", storedPath),
				logger.Err(err),
			)
		}
	}
	return nil
}

// Handler serves canonical files read-only. Temp files and directory
// listings are never exposed.
func (s *Store) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)
		if p == "/" || strings.HasPrefix(p, "/"+tmpDirName) || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if info, err := os.Stat(s.Path(p)); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// StoredPath derives the canonical relative path of content: <hash[0:2]>/<hash><ext>.
func StoredPath(hash, ext string) string {
	if len(hash) < 2 {
		return hash + ext
	}
	return hash[:2] + "/" + hash + ext
}

// place moves the temp file to its canonical location. Identical content may
// already be there; the existing file is kept and the temp file dropped.
func (s *Store) place(tmp, storedPath string) error {
	dst := s.Path(storedPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return os.Remove(tmp)
	}
	return os.Rename(tmp, dst)
}

func (s *Store) allows(mimeType string) bool {
	return storage.MatchesMIME(mimeType, s.allowed)
}

func (s *Store) mirrorFile(ctx context.Context, a *Asset) {
	if s.mirror == nil {
		return
	}
	f, err := os.Open(s.Path(a.StoredPath))
	if err != nil {
		s.log.WarnContext(ctx, "mirror open failed", slog.String("path", a.StoredPath), logger.Err(err))
		return
	}
	defer f.Close()

	if err := s.mirror.Upload(ctx, a.StoredPath, f, a.Size, a.ContentType); err != nil {
		s.log.WarnContext(ctx, "mirror upload failed", slog.String("path", a.StoredPath), logger.Err(err))
	}
}
