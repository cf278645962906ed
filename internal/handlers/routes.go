package handlers

import (
	"net/http"
	"time"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	root := RootHandler{}
	health := HealthHandler{DB: deps.DB}
	stats := StatsHandler{Stats: deps.Stats}
	videos := VideoHandler{
		Videos:        deps.Videos,
		Service:       deps.Service,
		UploadLimiter: deps.UploadLimiter,
		DownloadTTL:   deps.DownloadTTL,
		StreamTTL:     deps.StreamTTL,
	}

	mux.HandleFunc("GET /{$}", root.Handle)
	mux.HandleFunc("GET /health", health.Handle)
	mux.HandleFunc("GET /api/stats", stats.Handle)
	mux.HandleFunc("GET /api/videos", videos.List)
	mux.HandleFunc("POST /api/videos", videos.Create)
	mux.HandleFunc("POST /api/videos/upload", videos.Upload)
	mux.HandleFunc("GET /api/videos/{id}", videos.Get)
	mux.HandleFunc("DELETE /api/videos/{id}", videos.Delete)
	mux.HandleFunc("PATCH /api/videos/{id}/status", videos.UpdateStatus)
	mux.HandleFunc("GET /api/videos/{id}/download", videos.Download)
	mux.HandleFunc("GET /api/videos/{id}/stream", videos.Stream)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	DB            Pinger
	Videos        VideoStore
	Stats         StatsStore
	Service       VideoService
	UploadLimiter RateLimiter
	DownloadTTL   time.Duration
	StreamTTL     time.Duration
}
