package download

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
)

// ResumeToken is opaque continuation data captured from a previously
// interrupted download. Its internal layout belongs to the session
// manager that produced it; store and replay it as an undifferentiated
// byte sequence.
type ResumeToken []byte

// Destination decides the final persisted location of a completed
// download. It is invoked exactly once, after the body has been fully
// streamed to tmpPath; the session manager then moves the file to the
// returned path.
type Destination func(tmpPath string, resp *http.Response) (string, error)

// ToPath returns a [Destination] that always selects path, regardless
// of the temporary file name or response metadata.
func ToPath(path string) Destination {
	return func(string, *http.Response) (string, error) {
		if path == "" {
			return "", errors.New("destination path must not be empty")
		}
		return path, nil
	}
}

// ToDir returns a [Destination] that places the file in dir under a
// name derived from the response: the Content-Disposition filename
// when present, otherwise the last element of the request URL path,
// otherwise "download".
func ToDir(dir string) Destination {
	return func(_ string, resp *http.Response) (string, error) {
		if dir == "" {
			return "", errors.New("destination dir must not be empty")
		}
		return filepath.Join(dir, Filename(resp)), nil
	}
}

// Filename derives a safe file name from the response metadata.
func Filename(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := filepath.Base(params["filename"]); name != "." && name != string(filepath.Separator) {
				return name
			}
		}
	}

	if resp.Request != nil && resp.Request.URL != nil {
		if name := filepath.Base(resp.Request.URL.Path); name != "." && name != "/" {
			return name
		}
	}

	return "download"
}
