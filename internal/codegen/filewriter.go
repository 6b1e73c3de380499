package codegen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/veridock/text2api/internal/codegen/render"
)

// FileSystem is the file access the FileWriter needs
type FileSystem interface {
	WriteFile(name string, data []byte, perm fs.FileMode) error
	ReadFile(name string) ([]byte, error)
	Remove(name string) error
	MkdirAll(path string, perm fs.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	Chmod(name string, mode fs.FileMode) error
}

// OSFileSystem is the FileSystem of the host
type OSFileSystem struct{}

func (OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}
func (OSFileSystem) ReadFile(name string) ([]byte, error)         { return os.ReadFile(name) }
func (OSFileSystem) Remove(name string) error                     { return os.Remove(name) }
func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }
func (OSFileSystem) Stat(name string) (fs.FileInfo, error)        { return os.Stat(name) }
func (OSFileSystem) Chmod(name string, mode fs.FileMode) error     { return os.Chmod(name, mode) }

// FileWriter commits a file set as one unit. It is not safe to commit to
// the same directory concurrently.
type FileWriter struct {
	fs     FileSystem
	logger zerolog.Logger
}

func NewFileWriter(fsys FileSystem, logger zerolog.Logger) *FileWriter {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &FileWriter{fs: fsys, logger: logger.With().Str("component", "file-writer").Logger()}
}

// ReadFile reads a file through the writer's file system
func (w *FileWriter) ReadFile(name string) ([]byte, error) {
	return w.fs.ReadFile(name)
}

// backup is the state of a path before the commit touched it
type backup struct {
	path    string
	data    []byte
	mode    fs.FileMode
	existed bool
}

// journal records everything a commit changed, in order
type journal struct {
	backups []backup
	dirs    []string
}

// Commit writes files below dir and returns the written paths. On any error,
// including cancellation, overwritten files are restored and created files and
// directories are removed.
func (w *FileWriter) Commit(ctx context.Context, dir string, files []render.File) (written []string, err error) {
	j := &journal{}
	defer func() {
		if err == nil {
			return
		}
		if rerr := w.rollback(j); rerr != nil {
			w.logger.Error().Err(rerr).Str("dir", dir).Msg("rollback incomplete")
			err = errors.Join(err, fmt.Errorf("rollback incomplete: %w", rerr))
			return
		}
		w.logger.Warn().Err(err).Str("dir", dir).Int("files", len(j.backups)).Msg("generation rolled back")
	}()

	if err := w.mkdirAll(j, dir); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := w.mkdirAll(j, filepath.Dir(target)); err != nil {
			return nil, err
		}

		b, err := w.backup(target)
		if err != nil {
			return nil, err
		}
		j.backups = append(j.backups, b)

		if err := w.fs.WriteFile(target, f.Content, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", target, err)
		}
		written = append(written, target)
	}

	w.logger.Debug().Str("dir", dir).Int("files", len(written)).Msg("files committed")
	return written, nil
}

// backup records the content and permissions of target before it is
// overwritten
func (w *FileWriter) backup(target string) (backup, error) {
	info, err := w.fs.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return backup{path: target}, nil
	}
	if err != nil {
		return backup{}, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if info.IsDir() {
		return backup{}, fmt.Errorf("%s is a directory", target)
	}
	data, err := w.fs.ReadFile(target)
	if err != nil {
		return backup{}, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return backup{path: target, data: data, mode: info.Mode().Perm(), existed: true}, nil
}

// mkdirAll creates path and records each directory it had to create
func (w *FileWriter) mkdirAll(j *journal, path string) error {
	var missing []string
	for p := path; ; p = filepath.Dir(p) {
		info, err := w.fs.Stat(p)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", p)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		missing = append(missing, p)
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := w.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	// parents first
	for i := len(missing) - 1; i >= 0; i-- {
		j.dirs = append(j.dirs, missing[i])
	}
	return nil
}

func (w *FileWriter) rollback(j *journal) error {
	var errs []error
	for i := len(j.backups) - 1; i >= 0; i-- {
		b := j.backups[i]
		var err error
		if b.existed {
			err = w.fs.WriteFile(b.path, b.data, b.mode)
			if err == nil {
				err = w.fs.Chmod(b.path, b.mode)
			}
		} else {
			err = w.fs.Remove(b.path)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	for i := len(j.dirs) - 1; i >= 0; i-- {
		if err := w.fs.Remove(j.dirs[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
