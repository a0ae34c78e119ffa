package multipart

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

type partKind int

const (
	kindBytes partKind = iota + 1
	kindFile
	kindStream
)

// Part is one named body part. Construct it with [BytesPart],
// [FilePart], or [StreamPart]; the zero value is invalid.
type Part struct {
	Name        string `validate:"required"`
	FileName    string
	ContentType string

	kind     partKind
	data     []byte
	path     string
	reader   io.Reader
	sizeHint int64
}

// BytesPart wraps an in-memory byte slice.
func BytesPart(name string, data []byte) Part {
	return Part{Name: name, kind: kindBytes, data: data}
}

// FilePart references a file on disk. The part's file name defaults to
// the file's base name, and the content type is sniffed from the file
// contents unless set explicitly.
func FilePart(name, path string) Part {
	return Part{Name: name, FileName: filepath.Base(path), kind: kindFile, path: path}
}

// StreamPart wraps an arbitrary reader. sizeHint is the expected byte
// count used for the memory/disk decision; it is trusted
// unconditionally and never verified against the bytes actually read.
// Pass a negative hint when the size is unknown, which forces the disk
// path.
func StreamPart(name string, r io.Reader, sizeHint int64) Part {
	return Part{Name: name, kind: kindStream, reader: r, sizeHint: sizeHint}
}

// WithFileName returns a copy of the part with the given file name.
func (p Part) WithFileName(name string) Part {
	p.FileName = name
	return p
}

// WithContentType returns a copy of the part with an explicit content type.
func (p Part) WithContentType(ct string) Part {
	p.ContentType = ct
	return p
}

func (p Part) valid() error {
	if err := validate.Struct(p); err != nil {
		return &Error{Err: ErrInvalidPart, Detail: err.Error()}
	}

	if p.kind == 0 {
		return &Error{Err: ErrInvalidPart, Detail: fmt.Sprintf("part %q has no body source", p.Name)}
	}

	return nil
}
