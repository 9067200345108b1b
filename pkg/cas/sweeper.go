package cas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/atelier/pkg/logger"
)

// Sweeper periodically removes temp files older than a cutoff. Such files
// only exist when the process died mid-upload.
type Sweeper struct {
	store *Store
	age   time.Duration
	cron  *cron.Cron
	now   func() time.Time
}

// NewSweeper schedules Sweep on spec. Both five-field cron expressions and
// descriptors such as "@every 30m" are accepted.
func NewSweeper(s *Store, spec string, age time.Duration) (*Sweeper, error) {
	if age <= 0 {
		age = time.Hour
	}
	w := &Sweeper{
		store: s,
		age:   age,
		now:   time.Now,
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		))),
	}

	if _, err := w.cron.AddFunc(spec, func() {
		if _, err := w.Sweep(); err != nil {
			s.log.Warn("temp sweep failed", logger.Err(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("cas: invalid sweep schedule %q: %w", spec, err)
	}
	return w, nil
}

// Sweep removes stale temp files and returns how many were deleted.
func (w *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(w.store.tmpDir)
	if err != nil {
		return 0, err
	}

	cutoff := w.now().Add(-w.age)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.store.tmpDir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		w.store.log.Info("removed stale upload temp files", slog.Int("count", removed))
	}
	return removed, errors.Join(errs...)
}

// Start runs one sweep immediately and then follows the schedule.
func (w *Sweeper) Start(context.Context) error {
	if _, err := w.Sweep(); err != nil {
		w.store.log.Warn("temp sweep failed", logger.Err(err))
	}
	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Sweeper) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown returns a shutdown hook for the sweeper.
func (w *Sweeper) Shutdown() func(context.Context) error {
	return w.Stop
}
