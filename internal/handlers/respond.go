package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamscribe/backend/internal/logging"
	"github.com/streamscribe/backend/internal/repositories"
	"github.com/streamscribe/backend/internal/videos"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondDetail(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	respondJSON(ctx, w, status, errorResponse{Detail: detail})
}

// respondError maps err onto a status code and a {"detail": ...} body.
// Unexpected errors are logged in full and answered with fallback.
func respondError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	detail := fallback

	var verr *videos.ValidationError
	switch {
	case errors.As(err, &verr):
		detail = verr.Reason
	case errors.Is(err, repositories.ErrNotFound):
		detail = "Video not found"
	case status != http.StatusInternalServerError:
		detail = err.Error()
	default:
		logging.FromContext(ctx).Error(fallback, "error", err)
	}

	respondDetail(ctx, w, status, detail)
}

func statusFor(err error) int {
	var verr *videos.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, repositories.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, videos.ErrNoStoredFile):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, videos.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
