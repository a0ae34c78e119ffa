package multipart

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	mp "mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Form accumulates the named body parts for one encode call. A Form is
// owned by the coordinator for the duration of the call and must not
// be retained by the configuration callback.
type Form struct {
	parts []Part
}

// Append adds parts to the form in order.
func (f *Form) Append(parts ...Part) {
	f.parts = append(f.parts, parts...)
}

// Encode builds a form via configure and encodes it off the calling
// goroutine, attaching the resulting body to req. The outcome —
// success or failure — is delivered exactly once through the returned
// [Result]; no failure is ever reported synchronously.
//
// req must not be touched by the caller until the outcome has been
// delivered; on success the Session takes ownership from there.
func Encode(req *http.Request, configure func(*Form), optFns ...Option) *Result {
	r := &Result{done: make(chan struct{})}

	go func() {
		defer close(r.done)
		r.outcome = encode(req, configure, optFns)
	}()

	return r
}

func encode(req *http.Request, configure func(*Form), optFns []Option) Outcome {
	opts := options{
		threshold: DefaultMemoryThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return Outcome{Err: fmt.Errorf("applying option: %w", err)}
		}
	}
	if opts.boundary == "" {
		opts.boundary = fmt.Sprintf("reqkit.%s", uuid.NewString())
	}

	var form Form
	configure(&form)

	for _, p := range form.parts {
		if err := p.valid(); err != nil {
			return Outcome{Err: err}
		}
	}

	total, unbounded, err := form.totalSize()
	if err != nil {
		return Outcome{Err: err}
	}

	if !unbounded && total <= opts.threshold {
		return encodeMemory(req, &form, opts)
	}

	opts.logger.Info("streaming multipart body to disk",
		"total", total, "unbounded", unbounded, "threshold", opts.threshold)

	return encodeDisk(req, &form, opts)
}

// totalSize sums the parts: actual lengths for in-memory bytes, sizes
// on disk for file references, and the caller's hint for streams.
// unbounded reports a stream part with an unknown size.
func (f *Form) totalSize() (total int64, unbounded bool, err error) {
	for _, p := range f.parts {
		switch p.kind {
		case kindBytes:
			total += int64(len(p.data))
		case kindFile:
			info, err := os.Stat(p.path)
			if err != nil {
				return 0, false, &Error{Err: ErrUnreadablePart, Detail: fmt.Sprintf("sizing %q: %v", p.path, err)}
			}
			total += info.Size()
		case kindStream:
			if p.sizeHint < 0 {
				unbounded = true
				continue
			}
			total += p.sizeHint
		}
	}

	return total, unbounded, nil
}

func encodeMemory(req *http.Request, form *Form, opts options) Outcome {
	var buf bytes.Buffer

	mw := mp.NewWriter(&buf)
	if err := mw.SetBoundary(opts.boundary); err != nil {
		return Outcome{Err: fmt.Errorf("setting boundary: %w", err)}
	}

	for _, p := range form.parts {
		if err := writePart(mw, p); err != nil {
			return Outcome{Err: err}
		}
	}

	if err := mw.Close(); err != nil {
		return Outcome{Err: fmt.Errorf("finalizing form: %w", err)}
	}

	body := buf.Bytes()
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return Outcome{
		Request:     req,
		ContentType: mw.FormDataContentType(),
		Length:      int64(len(body)),
	}
}

func encodeDisk(req *http.Request, form *Form, opts options) Outcome {
	dir := opts.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	file, err := os.CreateTemp(dir, ".reqkit-mp-*")
	if err != nil {
		return Outcome{Err: &Error{Err: ErrTempFile, Detail: fmt.Sprintf("creating: %v", err)}}
	}

	outcome := streamToFile(req, form, file, opts)
	if outcome.Err != nil {
		file.Close()
		if err := os.Remove(file.Name()); err != nil {
			opts.logger.Error("failed to remove temp file", "error", err)
		}
	}

	return outcome
}

func streamToFile(req *http.Request, form *Form, file *os.File, opts options) Outcome {
	mw := mp.NewWriter(file)
	if err := mw.SetBoundary(opts.boundary); err != nil {
		return Outcome{Err: fmt.Errorf("setting boundary: %w", err)}
	}

	for _, p := range form.parts {
		if err := writePart(mw, p); err != nil {
			return Outcome{Err: err}
		}
	}

	if err := mw.Close(); err != nil {
		return Outcome{Err: &Error{Err: ErrTempFile, Detail: fmt.Sprintf("finalizing: %v", err)}}
	}

	if err := file.Sync(); err != nil {
		return Outcome{Err: &Error{Err: ErrTempFile, Detail: fmt.Sprintf("syncing: %v", err)}}
	}

	info, err := file.Stat()
	if err != nil {
		return Outcome{Err: &Error{Err: ErrTempFile, Detail: fmt.Sprintf("sizing: %v", err)}}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return Outcome{Err: &Error{Err: ErrTempFile, Detail: fmt.Sprintf("rewinding: %v", err)}}
	}

	req.Body = file
	req.GetBody = func() (io.ReadCloser, error) {
		return os.Open(file.Name())
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return Outcome{
		Request:     req,
		ContentType: mw.FormDataContentType(),
		Length:      info.Size(),
		TempFile:    file.Name(),
	}
}

func writePart(mw *mp.Writer, p Part) error {
	header := make(textproto.MIMEHeader)

	disposition := fmt.Sprintf(`form-data; name=%q`, p.Name)
	if p.FileName != "" {
		disposition += fmt.Sprintf(`; filename=%q`, p.FileName)
	}
	header.Set("Content-Disposition", disposition)

	if ct := p.contentType(); ct != "" {
		header.Set("Content-Type", ct)
	}

	w, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating part %q: %w", p.Name, err)
	}

	switch p.kind {
	case kindBytes:
		if _, err := w.Write(p.data); err != nil {
			return &Error{Err: ErrUnreadablePart, Detail: fmt.Sprintf("writing %q: %v", p.Name, err)}
		}
	case kindFile:
		src, err := os.Open(p.path)
		if err != nil {
			return &Error{Err: ErrUnreadablePart, Detail: fmt.Sprintf("opening %q: %v", p.path, err)}
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			return &Error{Err: ErrUnreadablePart, Detail: fmt.Sprintf("reading %q: %v", p.path, err)}
		}
	case kindStream:
		if _, err := io.Copy(w, p.reader); err != nil {
			return &Error{Err: ErrUnreadablePart, Detail: fmt.Sprintf("reading stream %q: %v", p.Name, err)}
		}
	}

	return nil
}

// contentType resolves the effective content type of a part: the
// explicit value when set, otherwise a sniff of the file contents for
// file references.
func (p Part) contentType() string {
	if p.ContentType != "" {
		return p.ContentType
	}

	if p.kind == kindFile {
		mt, err := mimetype.DetectFile(p.path)
		if err != nil {
			return "application/octet-stream"
		}
		return mt.String()
	}

	return ""
}
