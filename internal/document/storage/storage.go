// Package storage persists uploaded documents and hands back a time-limited
// retrieval reference.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	dErrors "enrollment/pkg/domain-errors"
)

// ObjectStore stores bytes under a logical path and returns a retrievable
// reference.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, path string) (string, error)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Timeout   time.Duration
	// ReferenceTTL is the lifetime of presigned GET references.
	ReferenceTTL time.Duration
}

// S3Store writes to a MinIO or S3 bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	ttl    time.Duration
	// timeout bounds each collaborator call
	timeout time.Duration
}

func NewS3Store(cfg Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	if cfg.ReferenceTTL <= 0 {
		cfg.ReferenceTTL = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &S3Store{client: client, bucket: cfg.Bucket, region: cfg.Region, ttl: cfg.ReferenceTTL, timeout: cfg.Timeout}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Store uploads data and returns a presigned GET URL for it.
func (s *S3Store) Store(ctx context.Context, data []byte, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := minio.PutObjectOptions{ContentType: http.DetectContentType(data)}
	if _, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", classify(err, "upload document")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, s.ttl, url.Values{})
	if err != nil {
		return "", classify(err, "presign document")
	}
	return u.String(), nil
}

func classify(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+" timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+" failed")
}
