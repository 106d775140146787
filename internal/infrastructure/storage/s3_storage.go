// Package storage provides object storage implementations for snapshot exports.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	linksapp "github.com/linkdeck/linkdeck/internal/application/links"
	infraconfig "github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3SnapshotStorage implements SnapshotStorage
var _ linksapp.SnapshotStorage = (*S3SnapshotStorage)(nil)

// S3SnapshotStorage stores link snapshots using the AWS S3 SDK v2.
// It is compatible with any S3-compatible storage (AWS S3, MinIO, etc.)
type S3SnapshotStorage struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3SnapshotStorageOption is a functional option for configuring S3SnapshotStorage
type S3SnapshotStorageOption func(*S3SnapshotStorage)

// WithLogger sets a custom logger for S3SnapshotStorage
func WithLogger(logger *zap.Logger) S3SnapshotStorageOption {
	return func(s *S3SnapshotStorage) {
		s.logger = logger
	}
}

// NewS3SnapshotStorage creates a new S3SnapshotStorage from configuration.
// It supports any S3-compatible storage backend (AWS S3, MinIO, etc.)
func NewS3SnapshotStorage(cfg *infraconfig.BackupConfig, opts ...S3SnapshotStorageOption) (*S3SnapshotStorage, error) {
	if cfg == nil {
		return nil, errors.New("backup configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("backup bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	// Static credentials are optional; without them the SDK falls back to
	// its default chain (env vars, shared config, instance role).
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid backup endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	storage := &S3SnapshotStorage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(storage)
	}

	return storage, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3SnapshotStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating backup bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// Ignore "BucketAlreadyOwnedByYou" error (race condition)
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	s.logger.Info("Backup bucket created successfully", zap.String("bucket", s.bucket))
	return nil
}

// PutSnapshot stores snapshot data under the configured prefix and returns
// the s3:// location of the stored object.
func (s *S3SnapshotStorage) PutSnapshot(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", errors.New("snapshot name is required")
	}

	key := s.objectKey(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Debug("stored snapshot",
		zap.String("location", location),
		zap.Int("bytes", len(data)))
	return location, nil
}

// SnapshotExists checks if a snapshot with the given name exists.
func (s *S3SnapshotStorage) SnapshotExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, errors.New("snapshot name is required")
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		// Some S3-compatible services report not-found differently
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check snapshot existence: %w", err)
	}

	return true, nil
}

func (s *S3SnapshotStorage) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(strings.TrimSuffix(s.prefix, "/"), name)
}

// GetBucket returns the bucket name
func (s *S3SnapshotStorage) GetBucket() string {
	return s.bucket
}
