package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const (
	serviceName    = "StreamScribe API"
	serviceVersion = "1.0.0"
)

var errDatabaseUnavailable = errors.New("database not configured")

// RootHandler serves the service banner.
type RootHandler struct{}

// Handle implements GET /.
func (RootHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{
		"service": serviceName,
		"version": serviceVersion,
		"status":  "operational",
	})
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB      Pinger
	Timeout time.Duration
	NowFunc func() time.Time
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

// Handle implements GET /health.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: h.now().Format(time.RFC3339),
		Database:  "connected",
	}

	if err := h.ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		respondJSON(ctx, w, http.StatusServiceUnavailable, resp)
		return
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

func (h HealthHandler) ping(ctx context.Context) error {
	if h.DB == nil {
		return errDatabaseUnavailable
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.DB.Ping(ctx)
}

func (h HealthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
