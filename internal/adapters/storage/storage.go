// Package storage reads inputs and writes outputs through an afero
// filesystem, so the pipeline runs unchanged against memory in tests.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/spf13/afero"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// Storage wraps a filesystem.
type Storage struct {
	fs       afero.Fs
	fileMode os.FileMode
	dirMode  os.FileMode
	logger   logger.Logger
}

// New creates a Storage on the OS filesystem unless WithFs is given.
func New(opts ...Option) *Storage {
	s := &Storage{
		fs:       afero.NewOsFs(),
		fileMode: defaultFileMode,
		dirMode:  defaultDirMode,
		logger:   logger.Get().Named("storage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens path for reading.
func (s *Storage) Open(path string) (afero.File, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return f, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place. Readers see either the previous file or the complete new
// one, never a partial write.
func (s *Storage) WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: temp file: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		_ = tmp.Close()
		if rmErr := s.fs.Remove(tmpName); rmErr != nil {
			s.logger.Warn(ctx, "failed to remove temp file", logger.String("path", tmpName), logger.Error(rmErr))
		}
		return fmt.Errorf("%w: %s %s: %w", ErrWrite, step, path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", err)
	}
	if err := s.fs.Chmod(tmpName, s.fileMode); err != nil {
		return fail("chmod", err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		return fail("rename", err)
	}
	if err := s.syncDir(dir); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrWrite, dir, err)
	}

	s.logger.Debug(ctx, "file written", logger.String("path", path), logger.Int("bytes", len(data)))
	return nil
}

// syncDir flushes the directory entry of a rename on the OS filesystem.
// Other filesystems have no durable directory state to flush.
func (s *Storage) syncDir(dir string) error {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return nil
	}
	d, err := s.fs.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}
