package download

import (
	"errors"
	"hash"
)

// Option defines optional settings for streaming a download.
type Option func(*options) error

type options struct {
	checksum *checksumVerifier
	progress bool
	tempDir  string
	appendTo string
	offset   int64
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{h: h, want: expected}
		return nil
	}
}

// WithProgress enables periodic progress logging via the logger
// supplied to [Handle].
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithTempDir overrides the directory the temporary file is created
// in. The default is [os.TempDir]. Destinations on a different
// filesystem fall back to a copy when the final rename fails.
func WithTempDir(dir string) Option {
	return func(opts *options) error {
		if dir == "" {
			return errors.New("temp dir must not be empty")
		}
		opts.tempDir = dir
		return nil
	}
}

// WithAppendTo continues writing into an existing partial file instead
// of creating a fresh temporary one. offset is the number of bytes
// already on disk, used for progress and resume accounting.
func WithAppendTo(path string, offset int64) Option {
	return func(opts *options) error {
		if path == "" {
			return errors.New("partial path must not be empty")
		}
		if offset < 0 {
			return errors.New("offset must not be negative")
		}
		opts.appendTo = path
		opts.offset = offset
		return nil
	}
}
