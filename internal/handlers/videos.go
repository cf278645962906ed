package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/streamscribe/backend/internal/models"
	"github.com/streamscribe/backend/internal/repositories"
	"github.com/streamscribe/backend/internal/videos"
)

const (
	maxListLimit = 100
	// multipartSlack covers boundaries and form fields around the file part.
	multipartSlack  = 1 << 20
	multipartMemory = 32 << 20
)

// VideoHandler provides the video CRUD, upload and access URL endpoints.
type VideoHandler struct {
	Videos        VideoStore
	Service       VideoService
	UploadLimiter RateLimiter
	DownloadTTL   time.Duration
	StreamTTL     time.Duration
}

type videoResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Duration         *int      `json:"duration"`
	FileSizeMB       *int      `json:"file_size_mb"`
	Status           string    `json:"status"`
	StoragePath      *string   `json:"storage_path"`
	StorageURL       *string   `json:"storage_url"`
	OriginalFilename *string   `json:"original_filename"`
	MimeType         *string   `json:"mime_type"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newVideoResponse(v models.Video) videoResponse {
	return videoResponse{
		ID:               v.ID,
		Title:            v.Title,
		Duration:         v.Duration,
		FileSizeMB:       v.FileSizeMB,
		Status:           string(v.Status),
		StoragePath:      v.StoragePath,
		StorageURL:       v.StorageURL,
		OriginalFilename: v.OriginalFilename,
		MimeType:         v.MimeType,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

type createVideoRequest struct {
	Title      string `json:"title"`
	Duration   *int   `json:"duration"`
	FileSizeMB *int   `json:"file_size_mb"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type uploadResponse struct {
	Message          string `json:"message"`
	VideoID          int64  `json:"video_id"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	StoragePath      string `json:"storage_path"`
	StorageURL       string `json:"storage_url"`
	MimeType         string `json:"mime_type"`
	FileSizeMB       int    `json:"file_size_mb"`
	FileSize         string `json:"file_size"`
	OriginalFilename string `json:"original_filename"`
}

type deleteResponse struct {
	Message        string `json:"message"`
	StorageDeleted bool   `json:"storage_deleted"`
}

type downloadResponse struct {
	VideoID     int64  `json:"video_id"`
	Title       string `json:"title"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int64  `json:"expires_in"`
}

type streamResponse struct {
	VideoID   int64   `json:"video_id"`
	Title     string  `json:"title"`
	StreamURL string  `json:"stream_url"`
	MimeType  *string `json:"mime_type"`
	ExpiresIn int64   `json:"expires_in"`
}

// List handles GET /api/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Videos == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.Videos.List(ctx, filter)
	if err != nil {
		respondError(ctx, w, err, "failed to list videos")
		return
	}

	out := make([]videoResponse, 0, len(list))
	for _, v := range list {
		out = append(out, newVideoResponse(v))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// Get handles GET /api/videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Videos == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	video, err := h.Videos.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err, "failed to load video")
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// Create handles POST /api/videos for metadata-only records.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Videos == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := videos.ValidateTitle(req.Title); err != nil {
		respondError(ctx, w, err, "invalid title")
		return
	}
	if req.Duration == nil || *req.Duration <= 0 {
		respondDetail(ctx, w, http.StatusBadRequest, "Duration must be a positive number of seconds")
		return
	}
	if req.FileSizeMB != nil && *req.FileSizeMB < 0 {
		respondDetail(ctx, w, http.StatusBadRequest, "File size must not be negative")
		return
	}

	video, err := h.Videos.Create(ctx, models.NewVideo{
		Title:      req.Title,
		Duration:   req.Duration,
		FileSizeMB: req.FileSizeMB,
		Status:     models.StatusUploading,
	})
	if err != nil {
		respondError(ctx, w, err, "failed to create video")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newVideoResponse(video))
}

// Upload handles POST /api/videos/upload with a multipart "file" part and an
// optional "title" field.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Service == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	if !allowRequest(h.UploadLimiter, r, "upload") {
		respondDetail(ctx, w, http.StatusTooManyRequests, "Too many uploads, try again later")
		return
	}

	maxBytes := h.Service.Limits().MaxBytes
	sizeErr := fmt.Sprintf("File too large. Maximum size is %s", videos.FormatFileSize(maxBytes))

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDetail(ctx, w, http.StatusBadRequest, sizeErr)
			return
		}
		respondDetail(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, "A file must be provided in the \"file\" field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	result, err := h.Service.Upload(ctx, videos.UploadRequest{
		Filename: header.Filename,
		Title:    r.FormValue("title"),
		Data:     data,
	})
	if err != nil {
		respondError(ctx, w, err, "Upload failed")
		return
	}

	v := result.Video
	resp := uploadResponse{
		Message:    "Video uploaded successfully",
		VideoID:    v.ID,
		Title:      v.Title,
		Status:     string(v.Status),
		FileSizeMB: deref(v.FileSizeMB),
		FileSize:   videos.FormatFileSize(result.Size),
	}
	resp.StoragePath = derefString(v.StoragePath)
	resp.StorageURL = derefString(v.StorageURL)
	resp.MimeType = derefString(v.MimeType)
	resp.OriginalFilename = derefString(v.OriginalFilename)

	respondJSON(ctx, w, http.StatusCreated, resp)
}

// Delete handles DELETE /api/videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Service == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.Service.Delete(ctx, id)
	if err != nil {
		respondError(ctx, w, err, "failed to delete video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, deleteResponse{
		Message:        fmt.Sprintf("Video %d deleted", id),
		StorageDeleted: result.StorageDeleted,
	})
}

// UpdateStatus handles PATCH /api/videos/{id}/status.
func (h VideoHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Videos == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, fmt.Sprintf("Invalid status. Allowed: %s", allowedStatuses()))
		return
	}

	video, err := h.Videos.UpdateStatus(ctx, id, status)
	if err != nil {
		respondError(ctx, w, err, "failed to update video status")
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// Download handles GET /api/videos/{id}/download.
func (h VideoHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access, ok := h.accessURL(w, r, ttlOrDefault(h.DownloadTTL, time.Hour))
	if !ok {
		return
	}
	respondJSON(ctx, w, http.StatusOK, downloadResponse{
		VideoID:     access.Video.ID,
		Title:       access.Video.Title,
		DownloadURL: access.URL,
		ExpiresIn:   int64(access.ExpiresIn / time.Second),
	})
}

// Stream handles GET /api/videos/{id}/stream.
func (h VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access, ok := h.accessURL(w, r, ttlOrDefault(h.StreamTTL, 4*time.Hour))
	if !ok {
		return
	}
	respondJSON(ctx, w, http.StatusOK, streamResponse{
		VideoID:   access.Video.ID,
		Title:     access.Video.Title,
		StreamURL: access.URL,
		MimeType:  access.Video.MimeType,
		ExpiresIn: int64(access.ExpiresIn / time.Second),
	})
}

func (h VideoHandler) accessURL(w http.ResponseWriter, r *http.Request, ttl time.Duration) (videos.AccessURL, bool) {
	ctx := r.Context()
	if h.Service == nil {
		respondDetail(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return videos.AccessURL{}, false
	}

	id, ok := pathID(w, r)
	if !ok {
		return videos.AccessURL{}, false
	}

	access, err := h.Service.AccessURL(ctx, id, ttl)
	if err != nil {
		respondError(ctx, w, err, "Failed to generate access URL")
		return videos.AccessURL{}, false
	}
	return access, true
}

func parseListFilter(r *http.Request) (repositories.ListFilter, error) {
	q := r.URL.Query()
	filter := repositories.ListFilter{Limit: repositories.DefaultListLimit}

	if raw := strings.TrimSpace(q.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return filter, errors.New("skip must be a non-negative integer")
		}
		filter.Skip = skip
	}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return filter, fmt.Errorf("limit must be between 1 and %d", maxListLimit)
		}
		filter.Limit = limit
	}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return filter, fmt.Errorf("Invalid status. Allowed: %s", allowedStatuses())
		}
		filter.Status = status
	}

	return filter, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondDetail(r.Context(), w, http.StatusBadRequest, "Invalid video id")
		return 0, false
	}
	return id, true
}

func allowedStatuses() string {
	names := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func ttlOrDefault(ttl, fallback time.Duration) time.Duration {
	if ttl <= 0 {
		return fallback
	}
	return ttl
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
