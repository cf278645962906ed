package repositories

import (
	"context"

	"github.com/streamscribe/backend/internal/models"
)

// DefaultListLimit is the page size used when a caller does not supply one.
const DefaultListLimit = 100

// ListFilter selects a page of videos, optionally restricted to one status.
type ListFilter struct {
	Skip   int
	Limit  int
	Status models.Status
}

// VideoRepository exposes data access for video metadata.
type VideoRepository interface {
	Get(ctx context.Context, id int64) (models.Video, error)
	List(ctx context.Context, filter ListFilter) ([]models.Video, error)
	Create(ctx context.Context, video models.NewVideo) (models.Video, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Video, error)
	Delete(ctx context.Context, id int64) (models.Video, error)
	CountByStatus(ctx context.Context) (map[models.Status]int64, error)
	Stats(ctx context.Context) (models.Stats, error)
}
