package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// Prefix is prepended to every object name, e.g. a run timestamp.
	Prefix string
}

// S3Store uploads artifacts to an S3-compatible bucket such as MinIO. It
// implements render.Store.
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger

	once      sync.Once
	bucketErr error
}

// NewS3Store creates a client for cfg. The bucket is checked and created on
// first upload.
func NewS3Store(cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With("component", "s3_store"),
	}, nil
}

// Put uploads data as prefix/name.
func (s *S3Store) Put(ctx context.Context, name, contentType string, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	key := s.objectName(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.Info("artifact uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}

func (s *S3Store) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.once.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketErr = fmt.Errorf("check bucket %s: %w", s.bucket, err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.bucketErr = fmt.Errorf("create bucket %s: %w", s.bucket, err)
			return
		}
		s.logger.Info("bucket created", "bucket", s.bucket)
	})
	return s.bucketErr
}
