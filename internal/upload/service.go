// Package upload stores user-supplied images in object storage and exposes
// the POST /api/upload endpoint.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/wireframe/service/internal/metrics"
	"github.com/wireframe/service/internal/storage"
)

// ErrUploadFailed wraps every failure reported by the storage backend.
var ErrUploadFailed = errors.New("upload failed")

// KeyGenerator derives a storage key from an original file name.
type KeyGenerator interface {
	Generate(originalName string) string
}

// Request is one file to store. FileName and ContentType come from the
// client and are not trusted.
type Request struct {
	Body        io.Reader
	Size        int64 // -1 when unknown
	FileName    string
	ContentType string
}

// Result is the outcome of a successful upload.
type Result struct {
	Key string `json:"-"`
	URL string `json:"url" example:"https://pub.example.r2.dev/1700000000000-k3j2h1g0f9e8d.png"`
}

// Service generates keys and writes objects. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	store   storage.Storage
	keys    KeyGenerator
	timeout time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService creates an upload Service. A zero timeout disables the
// per-upload deadline; m and log may be nil.
func NewService(store storage.Storage, keys KeyGenerator, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		keys:    keys,
		timeout: timeout,
		metrics: m,
		log:     log,
	}
}

// Upload stores req under a freshly generated key with exactly one PUT and
// returns the object's public URL. There is no retry and nothing is cleaned
// up on failure.
func (s *Service) Upload(ctx context.Context, req Request) (*Result, error) {
	key := s.keys.Generate(req.FileName)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.store.Upload(ctx, key, req.Body, req.Size, req.ContentType)
	if s.metrics != nil {
		s.metrics.RecordUpload(req.Size, time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	s.log.Debug("object stored",
		zap.String("key", key),
		zap.Int64("size", req.Size),
		zap.String("content_type", req.ContentType),
	)

	return &Result{Key: key, URL: s.store.PublicURL(key)}, nil
}
