package main

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wireframe/service/internal/config"
	"github.com/wireframe/service/internal/metrics"
	"github.com/wireframe/service/internal/upload"
)

type discardStore struct{}

func (discardStore) Upload(_ context.Context, _ string, r io.Reader, _ int64, _ string) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

func (discardStore) PublicURL(key string) string { return "https://cdn.test/" + key }

type fixedKey struct{}

func (fixedKey) Generate(string) string { return "1-aaaaaaaaaaaaa.png" }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{CORSAllowedOrigins: []string{"https://app.example"}}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := upload.NewService(discardStore{}, fixedKey{}, time.Second, m, zap.NewNop())
	return newRouter(cfg, zap.NewNop(), m, upload.NewHandler(svc, 1<<20, zap.NewNop()))
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Upload(t *testing.T) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "wire.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://cdn.test/1-aaaaaaaaaaaaa.png"}`, rec.Body.String())
}

func TestRouter_UploadWrongMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/upload", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
