package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioConfig holds settings for a MinIO (or other S3-compatible) endpoint.
type MinioConfig struct {
	Endpoint   string // host:port, without scheme
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicBase string
	UseSSL     bool
	// Region skips the bucket-location lookup when set.
	Region string
	// EnsureBucket creates the bucket with a public-read policy if missing.
	EnsureBucket bool
	Logger       *zap.Logger
}

// MinioStorage implements Storage using a MinIO client. Used for local
// development against a MinIO container.
type MinioStorage struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStorage creates a MinIO client and, when cfg.EnsureBucket is set,
// makes sure the bucket exists with a public-read policy.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// One attempt per call, same as the R2 client.
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     cfg.UseSSL,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if cfg.EnsureBucket {
		if err := ensureBucket(ctx, client, cfg.Bucket, log); err != nil {
			return nil, err
		}
	}

	return &MinioStorage{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: cfg.PublicBase,
	}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string, log *zap.Logger) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Info("created bucket", zap.String("bucket", bucket))
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// Upload streams reader to MinIO under key. size must be the exact byte count
// (-1 if unknown, in which case MinIO buffers it).
func (s *MinioStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/wireframes/1700000000000-abc.png"
func (s *MinioStorage) PublicURL(key string) string {
	return joinURL(s.publicBase, key)
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
