package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamscribe/backend/internal/config"
	"github.com/streamscribe/backend/internal/videos"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Ping(context.Context) error { return nil }

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		ObjectStore: config.ObjectStoreConfig{Folder: "uploads", Region: "us-east-1"},
		Upload: config.UploadConfig{
			MaxBytes:          config.DefaultMaxUploadBytes,
			DownloadURLTTL:    time.Hour,
			StreamURLTTL:      4 * time.Hour,
			RateLimitRequests: 10,
			RateLimitWindow:   time.Minute,
			RateLimitBurst:    5,
		},
	}
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore.Bucket = "test-bucket"
	cfg.ObjectStore.Endpoint = "http://localhost:9000"
	cfg.ObjectStore.AccessKey = "test"
	cfg.ObjectStore.SecretKey = "test"
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.DB == nil {
		t.Fatal("expected database pinger to be configured")
	}
	if deps.Videos == nil || deps.Stats == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Service == nil {
		t.Fatal("expected video service to be configured")
	}
	if deps.UploadLimiter == nil {
		t.Fatal("expected upload rate limiter to be configured")
	}
	if deps.Service.Limits().MaxBytes != config.DefaultMaxUploadBytes {
		t.Fatalf("unexpected upload limit %d", deps.Service.Limits().MaxBytes)
	}
	if deps.DownloadTTL != time.Hour || deps.StreamTTL != 4*time.Hour {
		t.Fatalf("unexpected url lifetimes %v %v", deps.DownloadTTL, deps.StreamTTL)
	}
}

func TestBuildDependenciesWithoutStorage(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	deps, err := buildDependencies(context.Background(), fakePool{}, testConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(logs.Bytes(), []byte("object storage not configured")) {
		t.Fatalf("expected a warning about missing storage, got %q", logs.String())
	}

	_, err = deps.Service.Upload(context.Background(), videos.UploadRequest{
		Filename: "clip.mp4",
		Title:    "Valid title",
		Data:     []byte("\x00\x00\x00\x20ftypisom"),
	})
	if !errors.Is(err, videos.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable got %v", err)
	}
}
