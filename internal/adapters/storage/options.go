package storage

import (
	"os"

	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/spf13/afero"
)

// Option applies a configuration option to the Storage.
type Option func(*Storage)

// WithFs sets the filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Storage) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithFileMode sets the permission bits of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Storage) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger logger.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}
