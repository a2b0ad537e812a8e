package widget

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wireframe/service/internal/keygen"
	"github.com/wireframe/service/internal/upload"
)

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "say \"hi\".png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/k.png"}`))
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL+"/", nil).Upload(context.Background(), File{
		Name: `say "hi".png`, ContentType: "image/png", Data: []byte("png"),
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k.png", url)
}

func TestClient_UploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Error uploading file"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Upload(context.Background(), File{Name: "a.png"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Error uploading file", apiErr.Message)
}

func TestClient_UploadNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Upload(context.Background(), File{Name: "a.png"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

// blockingStore holds each write until release is closed.
type blockingStore struct {
	started chan struct{}
	release chan struct{}

	mu          sync.Mutex
	keys        []string
	bodies      [][]byte
	contentType string
}

func (s *blockingStore) Upload(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.bodies = append(s.bodies, body)
	s.contentType = contentType
	s.mu.Unlock()
	return nil
}

func (s *blockingStore) PublicURL(key string) string {
	return "https://pub.example.r2.dev/" + key
}

func TestEndToEnd_DropJPEG(t *testing.T) {
	store := &blockingStore{started: make(chan struct{}, 1), release: make(chan struct{})}
	svc := upload.NewService(store, keygen.New(), 10*time.Second, nil, nil)
	r := chi.NewRouter()
	r.Post("/api/upload", upload.NewHandler(svc, 10<<20, nil).Upload)
	srv := httptest.NewServer(r)
	defer srv.Close()

	previews := NewMemoryPreviews()
	w := New(NewClient(srv.URL, nil), previews)
	defer w.Close()

	jpeg := bytes.Repeat([]byte{0xFF, 0xD8, 0xFF, 0xE0}, 512*1024) // 2 MiB
	require.NoError(t, w.DragEnter())
	require.NoError(t, w.Drop([]File{{Name: "diagram.jpg", ContentType: "image/jpeg", Data: jpeg}}))

	<-store.started
	snap := w.Snapshot()
	assert.Equal(t, Uploading, snap.State)
	assert.NotEmpty(t, snap.Preview)

	close(store.release)
	w.Wait()

	snap = w.Snapshot()
	require.Equal(t, Ready, snap.State, "err: %v", snap.Err)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.keys, 1)
	key := store.keys[0]
	assert.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-z]{13}\.jpg$`), key)
	assert.True(t, strings.HasSuffix(snap.URL, "/"+key))
	assert.Equal(t, "https://pub.example.r2.dev/"+key, snap.URL)
	assert.Equal(t, jpeg, store.bodies[0])
	assert.Equal(t, "image/jpeg", store.contentType)
}
