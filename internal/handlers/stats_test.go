package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamscribe/backend/internal/models"
	"github.com/streamscribe/backend/internal/repositories"
	"github.com/streamscribe/backend/internal/videos"
)

func intPtr(v int) *int { return &v }

func TestStatsHandlerTotalsMatchStore(t *testing.T) {
	env := newTestEnv(t, 1024)
	seed := []models.NewVideo{
		{Title: "One", Duration: intPtr(1800), FileSizeMB: intPtr(450), Status: models.StatusReady},
		{Title: "Two", Duration: intPtr(2400), FileSizeMB: intPtr(600), Status: models.StatusProcessing},
		{Title: "Three", Duration: intPtr(3600), FileSizeMB: intPtr(900), Status: models.StatusProcessing},
		{Title: "Four", Status: models.StatusUploading},
	}
	for _, v := range seed {
		if _, err := env.store.Create(t.Context(), v); err != nil {
			t.Fatalf("seed %s: %v", v.Title, err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/stats", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	resp := decode[statsResponse](t, rec)

	if resp.TotalVideos != int64(env.store.count()) {
		t.Fatalf("total_videos %d does not match row count %d", resp.TotalVideos, env.store.count())
	}
	var sum int64
	for _, n := range resp.StatusBreakdown {
		sum += n
	}
	if sum != resp.TotalVideos {
		t.Fatalf("status breakdown sums to %d, expected %d", sum, resp.TotalVideos)
	}
	if resp.StatusBreakdown["failed"] != 0 || len(resp.StatusBreakdown) != len(models.Statuses) {
		t.Fatalf("expected zero-filled breakdown for every status: %v", resp.StatusBreakdown)
	}
	if resp.TotalDurationHours != 2.17 {
		t.Fatalf("unexpected total_duration_hours %v", resp.TotalDurationHours)
	}
	if resp.TotalStorageGB != 1.9 {
		t.Fatalf("unexpected total_storage_gb %v", resp.TotalStorageGB)
	}
}

func TestStatsHandlerStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.statsErr = errBoom

	rec := httptest.NewRecorder()
	StatsHandler{Stats: store}.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "failed to compute stats" {
		t.Fatalf("expected internal error to be hidden, got %q", detail)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&videos.ValidationError{Reason: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("save: %w", repositories.ErrInvalidInput), http.StatusBadRequest},
		{repositories.ErrNotFound, http.StatusNotFound},
		{videos.ErrNoStoredFile, http.StatusNotFound},
		{fmt.Errorf("%w: ready -> uploading", repositories.ErrInvalidTransition), http.StatusConflict},
		{videos.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{videos.ErrSignedURL, http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d want %d", tc.err, got, tc.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Fatalf("expected peer address got %q", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("expected X-Real-IP got %q", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.2")
	if got := clientIP(req); got != "203.0.113.1" {
		t.Fatalf("expected first forwarded hop got %q", got)
	}
}
