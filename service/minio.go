package service

import (
	"context"
	"fmt"
	"io"

	"github.com/AnTengye/recscan/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioSource serves reports from a MinIO (or any S3-compatible) bucket.
// The whole bucket, optionally narrowed by prefix, is the candidate pool.
type MinioSource struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioSource(cfg *config.MinioConfig) (*MinioSource, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioSource{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

func (s *MinioSource) Name() string { return "minio" }

// CheckBucket fails when the configured bucket does not exist.
func (s *MinioSource) CheckBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *MinioSource) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.config.Prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *MinioSource) Candidates(ctx context.Context, company string) ([]Candidate, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, err
	}
	return blobCandidates(keys)
}

func (s *MinioSource) Reports(ctx context.Context) ([]string, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, err
	}
	return filterPDFKeys(keys), nil
}

func (s *MinioSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// PublicURL returns a direct URL for the object (if bucket policy allows)
func (s *MinioSource) PublicURL(key string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, key)
}
