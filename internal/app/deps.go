package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streamscribe/backend/internal/config"
	"github.com/streamscribe/backend/internal/db"
	"github.com/streamscribe/backend/internal/handlers"
	"github.com/streamscribe/backend/internal/middleware"
	"github.com/streamscribe/backend/internal/repositories"
	"github.com/streamscribe/backend/internal/storage"
	"github.com/streamscribe/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	repo := repositories.NewPostgresVideoRepository(pool)

	var objects videos.ObjectStorage
	if cfg.ObjectStore.Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore, cfg.Upload.DownloadURLTTL)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
		}
		objects = s3Store
	} else {
		logger.Warn("object storage not configured, upload download and stream endpoints will answer 503")
	}

	service := videos.NewService(repo, objects, cfg.ObjectStore.Folder, videos.Limits{MaxBytes: cfg.Upload.MaxBytes})

	return handlers.Dependencies{
		DB:      pool,
		Videos:  repo,
		Stats:   repo,
		Service: service,
		UploadLimiter: middleware.NewIPRateLimiter(
			cfg.Upload.RateLimitRequests,
			cfg.Upload.RateLimitWindow,
			cfg.Upload.RateLimitBurst,
			10*cfg.Upload.RateLimitWindow,
		),
		DownloadTTL: cfg.Upload.DownloadURLTTL,
		StreamTTL:   cfg.Upload.StreamURLTTL,
	}, nil
}
