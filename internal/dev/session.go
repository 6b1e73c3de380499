package dev

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/veridock/text2api/internal/config"
)

// RebuildFunc regenerates the project after path changed
type RebuildFunc func(ctx context.Context, path string) error

// Session watches a directory and calls the rebuild function once per burst
// of changes. Rebuilds never overlap.
type Session struct {
	root    string
	cfg     config.DevConfig
	rebuild RebuildFunc
	logger  zerolog.Logger

	// buildMu serializes rebuilds
	buildMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// NewSession creates a watch session rooted at root
func NewSession(root string, cfg config.DevConfig, rebuild RebuildFunc, logger zerolog.Logger) *Session {
	return &Session{
		root:    root,
		cfg:     cfg,
		rebuild: rebuild,
		logger:  logger.With().Str("component", "watch-session").Logger(),
	}
}

// Run watches until ctx ends
func (s *Session) Run(ctx context.Context) error {
	watcher, err := NewFileWatcher(s.root, s.cfg.Watch, s.cfg.Exclude, func(path string, op fsnotify.Op) {
		s.HandleChange(ctx, path, op)
	}, s.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.AddDirectory(s.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.root, err)
	}
	s.logger.Info().Str("root", s.root).Strs("patterns", s.cfg.Watch).Msg("watching for changes")

	err = watcher.Start(ctx)
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return err
}

// HandleChange schedules a rebuild for a changed file. Changes arriving
// within the debounce window are folded into one rebuild of the last path.
func (s *Session) HandleChange(ctx context.Context, path string, op fsnotify.Op) {
	if op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	rel, _ := filepath.Rel(s.root, path)
	s.logger.Debug().Str("path", rel).Str("op", op.String()).Msg("file changed")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = path
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, func() {
		s.mu.Lock()
		p := s.pending
		s.mu.Unlock()
		s.Rebuild(ctx, p)
	})
}

// Rebuild runs the rebuild function, waiting for a running one to finish.
// Failures are logged; the session keeps watching.
func (s *Session) Rebuild(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	if err := s.rebuild(ctx, path); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("rebuild failed")
		return
	}
	s.logger.Info().Str("path", path).Dur("took", time.Since(start)).Msg("rebuild completed")
}
