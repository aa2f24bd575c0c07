package pkg

import (
	"io"

	"github.com/natefinch/lumberjack"
)

// RotationConfig describes a size-rotated log file.
type RotationConfig struct {
	Path       string // Log file path
	MaxSizeMB  int    // Rotate after this many megabytes (0 = lumberjack default, 100)
	MaxBackups int    // Number of rotated files to keep (0 = keep all)
	MaxAgeDays int    // Days to keep rotated files (0 = no age limit)
	Compress   bool   // Gzip rotated files
}

// NewRotatingWriter returns a writer that appends to cfg.Path and rotates the
// file when it grows past cfg.MaxSizeMB. The caller closes it on shutdown.
func NewRotatingWriter(cfg RotationConfig) (io.WriteCloser, error) {
	if cfg.Path == "" {
		return nil, ErrInvalidParameter
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}, nil
}
