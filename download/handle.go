package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Handle streams body to a temporary file, verifies it, evaluates dest
// exactly once with the temporary location and the response, and moves
// the file to the decided path. It returns the final path.
//
// On context cancellation the partial file is retained and a
// [*CancelledError] carrying its location is returned; any other
// failure removes the file. resp supplies the expected content length
// and the metadata handed to dest; its body is not touched.
func Handle(ctx context.Context, body io.Reader, resp *http.Response, dest Destination, logger *slog.Logger, optFns ...Option) (string, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return "", fmt.Errorf("applying option: %w", err)
		}
	}

	body = &contextReader{ctx: ctx, r: body}

	file, err := openTarget(opts)
	if err != nil {
		return "", err
	}

	var successful, retainPartial bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful && !retainPartial {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	contentLength := resp.ContentLength

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	if opts.progress {
		total := contentLength
		if total >= 0 {
			total += opts.offset
		}
		writer = &progressWriter{
			w:           writer,
			logger:      logger,
			transferred: opts.offset,
			total:       total,
			startTime:   time.Now(),
		}
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			retainPartial = true
			if err := file.Sync(); err != nil {
				logger.Error("syncing partial file", "error", err)
			}
			return "", &CancelledError{Partial: file.Name(), Written: opts.offset + n, Err: err}
		}

		return "", fmt.Errorf("copying response body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return "", &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := opts.checksum.Verify(); err != nil {
		return "", err
	}

	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	final, err := dest(file.Name(), resp)
	if err != nil {
		return "", fmt.Errorf("deciding destination: %w", err)
	}

	if final != file.Name() {
		if err := moveFile(file.Name(), final); err != nil {
			return "", fmt.Errorf("moving temp file: %w", err)
		}
	}

	successful = true

	return final, nil
}

func openTarget(opts options) (*os.File, error) {
	if opts.appendTo != "" {
		file, err := os.OpenFile(opts.appendTo, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening partial file: %w", err)
		}
		return file, nil
	}

	dir := opts.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	file, err := os.CreateTemp(dir, ".reqkit-dl-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	return file, nil
}

// moveFile renames src to dst, falling back to a copy when the two
// live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying to destination: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	return os.Remove(src)
}

// contextReader fails the copy as soon as ctx ends, so cancellation is
// observed even when the underlying reader blocks between chunks.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
