package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds Cloudflare R2 storage configuration.
type R2Config struct {
	AccountID       string
	Endpoint        string // overrides the endpoint derived from AccountID
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBase      string
}

// R2Storage implements Storage on top of the S3 API exposed by R2.
type R2Storage struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewR2Storage creates an S3 client pointed at R2. Credentials and bucket
// are not checked here; bad values fail on the first PUT.
func NewR2Storage(ctx context.Context, cfg R2Config) (*R2Storage, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"",
	)

	// R2 ignores the region but the SDK needs one for signing.
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		// One upload is one PUT: no SDK retries, no trailing checksums.
		o.Retryer = aws.NopRetryer{}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &R2Storage{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: cfg.PublicBase,
	}, nil
}

// Upload puts the object under key. An empty contentType is left unset.
func (s *R2Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns "{public base}/{key}".
func (s *R2Storage) PublicURL(key string) string {
	return joinURL(s.publicBase, key)
}
