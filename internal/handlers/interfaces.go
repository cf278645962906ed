package handlers

import (
	"context"
	"time"

	"github.com/streamscribe/backend/internal/models"
	"github.com/streamscribe/backend/internal/repositories"
	"github.com/streamscribe/backend/internal/videos"
)

// VideoStore captures the metadata operations required by the video handlers.
type VideoStore interface {
	Get(ctx context.Context, id int64) (models.Video, error)
	List(ctx context.Context, filter repositories.ListFilter) ([]models.Video, error)
	Create(ctx context.Context, video models.NewVideo) (models.Video, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Video, error)
}

// StatsStore aggregates the videos table.
type StatsStore interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// VideoService runs the storage-backed video workflows.
type VideoService interface {
	Upload(ctx context.Context, req videos.UploadRequest) (videos.UploadResult, error)
	Delete(ctx context.Context, id int64) (videos.DeleteResult, error)
	AccessURL(ctx context.Context, id int64, ttl time.Duration) (videos.AccessURL, error)
	Limits() videos.Limits
}

// Pinger probes database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
