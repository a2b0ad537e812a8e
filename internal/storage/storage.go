// Package storage defines the interface for object storage operations.
// Swap implementations by changing the driver selected at startup. Both
// backends speak the S3 API (Cloudflare R2 in production, MinIO locally).
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Storage is the interface for writing objects and resolving their public URLs.
type Storage interface {
	// Upload writes data to the store under the given key in a single PUT.
	// Writing an existing key replaces the object.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}

// Driver names accepted by New.
const (
	DriverR2    = "r2"
	DriverMinio = "minio"
)

// Config selects and configures a storage backend.
type Config struct {
	Driver       string
	AccountID    string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	PublicBase   string
	UseSSL       bool
	EnsureBucket bool
	// Logger receives backend setup events. Nil discards them.
	Logger *zap.Logger
}

// New builds the backend named by cfg.Driver. The returned client is meant
// to be constructed once and shared by all requests.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverR2, "":
		return NewR2Storage(ctx, R2Config{
			AccountID:       cfg.AccountID,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			Bucket:          cfg.Bucket,
			PublicBase:      cfg.PublicBase,
		})
	case DriverMinio:
		return NewMinioStorage(ctx, MinioConfig{
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			Bucket:       cfg.Bucket,
			PublicBase:   cfg.PublicBase,
			UseSSL:       cfg.UseSSL,
			EnsureBucket: cfg.EnsureBucket,
			Logger:       cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// joinURL returns base + "/" + key with trailing slashes trimmed from base.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
