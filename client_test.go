package reqkit_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	mp "mime/multipart"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/reqkit"
	"github.com/adamwoolhether/reqkit/download"
	"github.com/adamwoolhether/reqkit/multipart"
)

type fakeHandle struct {
	done chan struct{}
	err  error
}

func newFakeHandle(err error) *fakeHandle {
	h := &fakeHandle{done: make(chan struct{}), err: err}
	close(h.done)
	return h
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Err() error {
	<-h.done
	return h.err
}

func (h *fakeHandle) Cancel() {}

type fakeSession struct {
	mu         sync.Mutex
	dispatched []*http.Request
	uploads    []reqkit.BodySource
	dests      []download.Destination
	tokens     []download.ResumeToken
	err        error
}

func (s *fakeSession) Dispatch(req *http.Request) (reqkit.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.dispatched = append(s.dispatched, req)
	return newFakeHandle(nil), nil
}

func (s *fakeSession) DispatchUpload(req *http.Request, body reqkit.BodySource) (reqkit.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.dispatched = append(s.dispatched, req)
	s.uploads = append(s.uploads, body)
	return newFakeHandle(nil), nil
}

func (s *fakeSession) DispatchDownload(req *http.Request, dest download.Destination) (reqkit.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.dispatched = append(s.dispatched, req)
	s.dests = append(s.dests, dest)
	return newFakeHandle(nil), nil
}

func (s *fakeSession) DispatchResume(_ context.Context, token download.ResumeToken, dest download.Destination) (reqkit.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.tokens = append(s.tokens, token)
	s.dests = append(s.dests, dest)
	return newFakeHandle(nil), nil
}

func TestNew_NilSession(t *testing.T) {
	if _, err := reqkit.New(nil); !errors.Is(err, reqkit.ErrNilSession) {
		t.Fatalf("expected ErrNilSession, got %v", err)
	}
}

func TestClient_Do(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	h, err := c.Do(context.Background(), http.MethodGet, reqkit.Address("https://api.example.com/v1/items"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Err(); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if len(session.dispatched) != 1 {
		t.Fatalf("dispatched %d requests, want 1", len(session.dispatched))
	}
	if got := session.dispatched[0].URL.String(); got != "https://api.example.com/v1/items" {
		t.Errorf("dispatched url = %q", got)
	}
}

func TestClient_Do_SessionFailureWrapped(t *testing.T) {
	cause := errors.New("connection pool exhausted")
	c, err := reqkit.New(&fakeSession{err: cause})
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	_, err = c.Do(context.Background(), http.MethodGet, reqkit.Address("https://api.example.com/"))
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause forwarded, got %v", err)
	}

	var dispatchErr *reqkit.DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected DispatchError, got %T", err)
	}
}

func TestClient_Do_BuildErrorNeverReachesSession(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := c.Do(context.Background(), http.MethodGet, reqkit.Address("/relative")); !errors.Is(err, reqkit.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}

	if len(session.dispatched) != 0 {
		t.Error("session must not see a request that failed to build")
	}
}

func TestClient_UploadData(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	payload := []byte("hello upload")
	h, err := c.UploadData(context.Background(), http.MethodPost, reqkit.Address("https://api.example.com/blobs"), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Err(); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if len(session.uploads) != 1 {
		t.Fatalf("recorded %d upload sources, want 1", len(session.uploads))
	}

	rc, length, err := session.uploads[0].Open()
	if err != nil {
		t.Fatalf("opening source: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("source bytes = %q, want %q", got, payload)
	}
	if length != int64(len(payload)) {
		t.Errorf("source length = %d, want %d", length, len(payload))
	}
}

func TestClient_Upload_RejectsBodyEncodedParameters(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	// For POST the default encoding puts parameters in the body, where
	// the upload payload would overwrite them (or vice versa).
	_, err = c.UploadData(context.Background(), http.MethodPost, reqkit.Address("https://api.example.com/blobs"),
		[]byte("the actual upload payload"),
		reqkit.WithParameters(reqkit.Parameters{"note": "metadata"}),
	)
	if !errors.Is(err, reqkit.ErrBodyConflict) {
		t.Fatalf("expected ErrBodyConflict, got %v", err)
	}

	if len(session.dispatched) != 0 {
		t.Error("session must not see an upload with a conflicting body")
	}
}

func TestClient_Upload_QueryParametersRideAlong(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	payload := []byte("the actual upload payload")
	h, err := c.UploadData(context.Background(), http.MethodPost, reqkit.Address("https://api.example.com/blobs"),
		payload,
		reqkit.WithParameters(reqkit.Parameters{"note": "metadata"}),
		reqkit.WithEncoding(reqkit.QueryEncoding{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Err(); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if got := session.dispatched[0].URL.Query().Get("note"); got != "metadata" {
		t.Errorf("query parameter note = %q", got)
	}

	rc, _, err := session.uploads[0].Open()
	if err != nil {
		t.Fatalf("opening source: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("upload payload = %q, want it intact alongside the query parameters", got)
	}
}

func TestClient_UploadMultipart_RejectsBodyEncodedParameters(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	_, err = c.UploadMultipart(context.Background(), http.MethodPost, reqkit.Address("https://api.example.com/forms"),
		func(f *multipart.Form) {
			f.Append(multipart.BytesPart("a", []byte("1")))
		},
		reqkit.WithParameters(reqkit.Parameters{"note": "metadata"}),
	)
	if !errors.Is(err, reqkit.ErrBodyConflict) {
		t.Fatalf("expected ErrBodyConflict, got %v", err)
	}

	if len(session.dispatched) != 0 {
		t.Error("session must not see an upload with a conflicting body")
	}
}

func TestClient_UploadReader_IsOneShot(t *testing.T) {
	src := reqkit.NewReaderSource(bytes.NewReader([]byte("once")))

	if _, _, err := src.Open(); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, _, err := src.Open(); !errors.Is(err, reqkit.ErrSourceConsumed) {
		t.Fatalf("expected ErrSourceConsumed on second open, got %v", err)
	}
}

func TestClient_UploadMultipart(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	h, err := c.UploadMultipart(context.Background(), http.MethodPost, reqkit.Address("https://api.example.com/forms"),
		func(f *multipart.Form) {
			f.Append(multipart.BytesPart("title", []byte("report")))
			f.Append(multipart.BytesPart("year", []byte("2026")))
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Err(); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if len(session.dispatched) != 1 {
		t.Fatalf("dispatched %d requests, want 1", len(session.dispatched))
	}

	req := session.dispatched[0]
	mediaType := req.Header.Get("Content-Type")
	boundary, err := boundaryOf(mediaType)
	if err != nil {
		t.Fatalf("parsing content type %q: %v", mediaType, err)
	}

	body, err := req.GetBody()
	if err != nil {
		t.Fatalf("reopening body: %v", err)
	}
	defer body.Close()

	form, err := mp.NewReader(body, boundary).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("parsing form: %v", err)
	}
	defer form.RemoveAll()

	want := map[string][]string{"title": {"report"}, "year": {"2026"}}
	if diff := cmp.Diff(want, form.Value); diff != "" {
		t.Errorf("form values mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_UploadMultipart_EncodingFailureViaHandle(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	h, err := c.UploadMultipart(context.Background(), http.MethodPost, reqkit.Address("https://api.example.com/forms"),
		func(f *multipart.Form) {
			f.Append(multipart.FilePart("attachment", "/definitely/not/there.bin"))
		},
	)
	if err != nil {
		t.Fatalf("encoding failures must not surface synchronously: %v", err)
	}

	if err := h.Err(); !errors.Is(err, multipart.ErrUnreadablePart) {
		t.Fatalf("expected ErrUnreadablePart via handle, got %v", err)
	}

	if len(session.dispatched) != 0 {
		t.Error("session must not see a request whose encoding failed")
	}
}

func TestClient_Download(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	h, err := c.Download(context.Background(), reqkit.Address("https://files.example.com/big.bin"), download.ToPath("/tmp/big.bin"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Err(); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if len(session.dests) != 1 {
		t.Fatalf("recorded %d destinations, want 1", len(session.dests))
	}

	final, err := session.dests[0]("/anything/tmp123", &http.Response{})
	if err != nil {
		t.Fatalf("destination: %v", err)
	}
	if final != "/tmp/big.bin" {
		t.Errorf("destination decided %q, want the fixed path", final)
	}
}

func TestClient_DownloadResume_ForwardsTokenUnmodified(t *testing.T) {
	session := &fakeSession{}
	c, err := reqkit.New(session)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	token := download.ResumeToken(`{"anything":"the facade must not parse this"}`)

	h, err := c.DownloadResume(context.Background(), token, download.ToPath("/tmp/big.bin"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Err(); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if len(session.tokens) != 1 {
		t.Fatalf("recorded %d tokens, want 1", len(session.tokens))
	}
	if !bytes.Equal(session.tokens[0], token) {
		t.Errorf("token was modified in transit: %q", session.tokens[0])
	}
}

func boundaryOf(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", err
	}
	if mediaType != "multipart/form-data" {
		return "", fmt.Errorf("unexpected media type %q", mediaType)
	}
	return params["boundary"], nil
}

func TestClient_DownloadResume_EmptyToken(t *testing.T) {
	c, err := reqkit.New(&fakeSession{})
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := c.DownloadResume(context.Background(), nil, download.ToPath("/tmp/x")); !errors.Is(err, reqkit.ErrEmptyResumeToken) {
		t.Fatalf("expected ErrEmptyResumeToken, got %v", err)
	}
}
