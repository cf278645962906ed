package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/streamscribe/backend/internal/config"
	"github.com/streamscribe/backend/internal/logging"
)

// ErrEmptyKey is returned when an object key is blank after normalisation.
var ErrEmptyKey = errors.New("s3 storage: empty key")

// S3Storage keeps video objects in an S3-compatible bucket.
type S3Storage struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
	signedTTL time.Duration
}

// NewS3Storage configures a client targeting the provided object store.
// signedTTL is the lifetime of the URL returned from Put when the bucket has
// no public base URL.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig, signedTTL time.Duration) (*S3Storage, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	if signedTTL <= 0 {
		signedTTL = time.Hour
	}

	return &S3Storage{
		client:    client,
		uploader:  uploader,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		baseURL:   strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		signedTTL: signedTTL,
	}, nil
}

// Put uploads data under key and returns a retrievable URL: public when a base
// URL is configured, otherwise signed.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", ErrEmptyKey
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key), nil
	}

	url, err := s.presign(ctx, key, s.signedTTL)
	if err != nil {
		return "", err
	}
	return url, nil
}

// Delete removes the object at key. Failures are logged and reported as false.
func (s *S3Storage) Delete(ctx context.Context, key string) bool {
	key = normalizeKey(key)
	logger := logging.FromContext(ctx)
	if key == "" {
		logger.Warn("skip storage delete for empty key")
		return false
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logger.Error("storage delete failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	logger.Info("storage object deleted", slog.String("key", key))
	return true
}

// SignedURL returns a time-limited GET URL for key. Failures are logged and
// reported as ok == false.
func (s *S3Storage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	url, err := s.presign(ctx, normalizeKey(key), ttl)
	if err != nil {
		logging.FromContext(ctx).Error("create signed url failed", slog.String("key", key), slog.Any("error", err))
		return "", false
	}
	return url, true
}

func (s *S3Storage) presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func normalizeKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
