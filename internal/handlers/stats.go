package handlers

import (
	"math"
	"net/http"

	"github.com/streamscribe/backend/internal/models"
)

// StatsHandler reports aggregate counts over the videos table.
type StatsHandler struct {
	Stats StatsStore
}

type statsResponse struct {
	TotalVideos        int64            `json:"total_videos"`
	TotalDurationHours float64          `json:"total_duration_hours"`
	TotalStorageGB     float64          `json:"total_storage_gb"`
	StatusBreakdown    map[string]int64 `json:"status_breakdown"`
}

// Handle implements GET /api/stats.
func (h StatsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Stats == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	stats, err := h.Stats.Stats(ctx)
	if err != nil {
		respondError(ctx, w, err, "failed to compute stats")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newStatsResponse(stats))
}

func newStatsResponse(stats models.Stats) statsResponse {
	breakdown := make(map[string]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		breakdown[string(s)] = 0
	}
	for s, totals := range stats.ByStatus {
		breakdown[string(s)] = totals.Count
	}

	return statsResponse{
		TotalVideos:        stats.TotalVideos(),
		TotalDurationHours: round2(float64(stats.TotalDurationSeconds()) / 3600),
		TotalStorageGB:     round2(float64(stats.TotalFileSizeMB()) / 1024),
		StatusBreakdown:    breakdown,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
