package multipart

import (
	"errors"
	"log/slog"
	"strings"
)

// Option defines optional settings for one encode call.
type Option func(*options) error

type options struct {
	threshold int64
	tempDir   string
	boundary  string
	logger    *slog.Logger
}

// WithMemoryThreshold overrides [DefaultMemoryThreshold] for this
// encode call. Totals less than or equal to the threshold are encoded
// in memory; larger totals are streamed to disk.
func WithMemoryThreshold(bytes int64) Option {
	return func(opts *options) error {
		if bytes <= 0 {
			return errors.New("threshold must be greater than zero")
		}
		opts.threshold = bytes
		return nil
	}
}

// WithTempDir overrides the directory used for disk-streamed bodies.
// The default is [os.TempDir].
func WithTempDir(dir string) Option {
	return func(opts *options) error {
		if dir == "" {
			return errors.New("temp dir must not be empty")
		}
		opts.tempDir = dir
		return nil
	}
}

// WithBoundary fixes the multipart boundary instead of generating a
// random one. The boundary must satisfy RFC 2046.
func WithBoundary(boundary string) Option {
	return func(opts *options) error {
		if strings.TrimSpace(boundary) == "" {
			return errors.New("boundary must not be empty")
		}
		opts.boundary = boundary
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] used while encoding.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		opts.logger = logger
		return nil
	}
}
