// Package janitor sweeps scratch directories that survived a crash.
// Pipelines remove their own directories on every exit path; the sweep only
// catches what an unclean shutdown left behind.
package janitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultInterval is the default sweep interval.
	DefaultInterval = 30 * time.Minute

	// DefaultMaxAge is how old a scratch directory must be before it is
	// considered orphaned. Comfortably above any fetch timeout.
	DefaultMaxAge = 2 * time.Hour

	scratchPrefix = "clipbot-"
)

// Service periodically removes orphaned scratch directories.
type Service struct {
	root     string
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// NewService creates a janitor sweeping root.
func NewService(root string, interval, maxAge time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{
		root:     root,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	slog.Info("Janitor started", "root", s.root, "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Janitor stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes scratch directories older than the age threshold and
// returns how many were removed.
func (s *Service) Sweep() int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		slog.Warn("Janitor sweep failed", "root", s.root, "err", err)
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), scratchPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("Janitor remove failed", "path", path, "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("Janitor removed orphaned scratch dirs", "count", removed)
	}
	return removed
}
