package videos

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/streamscribe/backend/internal/logging"
	"github.com/streamscribe/backend/internal/models"
)

// ObjectStorage is the bucket the service writes video bytes to.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) bool
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, bool)
}

// Store persists video rows.
type Store interface {
	Get(ctx context.Context, id int64) (models.Video, error)
	Create(ctx context.Context, video models.NewVideo) (models.Video, error)
	Delete(ctx context.Context, id int64) (models.Video, error)
}

// UploadRequest carries one multipart upload.
type UploadRequest struct {
	Filename string
	Title    string
	Data     []byte
}

// UploadResult is the persisted row plus the raw payload size.
type UploadResult struct {
	Video models.Video
	Size  int64
}

// DeleteResult reports a removed row and whether its object was removed too.
type DeleteResult struct {
	Video          models.Video
	StorageDeleted bool
}

// AccessURL is a time-limited link to a stored video.
type AccessURL struct {
	Video     models.Video
	URL       string
	ExpiresIn time.Duration
}

// Service runs the upload-and-persist workflow and the storage-backed
// operations on existing videos.
type Service struct {
	store   Store
	storage ObjectStorage
	folder  string
	limits  Limits

	// NowFunc overrides the clock used for generated filenames.
	NowFunc func() time.Time
}

// NewService wires a workflow over store and storage. storage may be nil
// when no bucket is configured; storage-backed calls then fail with
// ErrStorageUnavailable.
func NewService(store Store, storage ObjectStorage, folder string, limits Limits) *Service {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return &Service{store: store, storage: storage, folder: folder, limits: limits}
}

// Limits returns the size bounds applied to uploads.
func (s *Service) Limits() Limits {
	return s.limits
}

// Upload validates req, writes its bytes to storage under a generated name
// and inserts a processing row pointing at the object. A failed insert does
// not remove the object.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = TitleFromFilename(req.Filename)
	}
	size := int64(len(req.Data))

	if err := s.limits.Validate(req.Filename, title, size); err != nil {
		return UploadResult{}, err
	}
	if s.storage == nil {
		return UploadResult{}, ErrStorageUnavailable
	}

	key := path.Join(s.folder, UniqueFilename(s.now(), req.Filename))
	logger := logging.FromContext(ctx).With(slog.String("storage_path", key))

	_, span := logging.StartSpan(ctx, "mime.sniff")
	mimeType := DetectMIME(req.Data)
	if !IsVideoMIME(mimeType) {
		err := invalid(fmt.Sprintf("File is not a valid video (detected %s)", mimeType))
		span.End(err)
		return UploadResult{}, err
	}
	span.End(nil)

	putCtx, span := logging.StartSpan(ctx, "storage.put")
	url, err := s.storage.Put(putCtx, key, req.Data, mimeType)
	span.End(err)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload to storage: %w", err)
	}

	original := SanitizeFilename(req.Filename)
	sizeMB := SizeInMB(size)
	insertCtx, span := logging.StartSpan(ctx, "db.insert")
	video, err := s.store.Create(insertCtx, models.NewVideo{
		Title:            title,
		FileSizeMB:       &sizeMB,
		Status:           models.StatusProcessing,
		StoragePath:      &key,
		StorageURL:       &url,
		OriginalFilename: &original,
		MimeType:         &mimeType,
	})
	span.End(err)
	if err != nil {
		logger.Warn("stored object left without a database row")
		return UploadResult{}, fmt.Errorf("save video record: %w", err)
	}

	logger.Info("video uploaded", slog.Int64("video_id", video.ID), slog.Int64("size", size))
	return UploadResult{Video: video, Size: size}, nil
}

// Delete removes the row for id, then makes a single attempt to remove its
// stored object. A failed object delete is logged and reported, never retried.
func (s *Service) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	video, err := s.store.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{Video: video}
	if video.StoragePath == nil || *video.StoragePath == "" {
		return result, nil
	}

	logger := logging.FromContext(ctx).With(slog.Int64("video_id", id), slog.String("storage_path", *video.StoragePath))
	if s.storage == nil {
		logger.Warn("storage not configured, object left in bucket")
		return result, nil
	}

	result.StorageDeleted = s.storage.Delete(ctx, *video.StoragePath)
	if !result.StorageDeleted {
		logger.Warn("video row deleted but storage object remains")
	}
	return result, nil
}

// AccessURL issues a signed URL for the stored file of video id valid for ttl.
func (s *Service) AccessURL(ctx context.Context, id int64, ttl time.Duration) (AccessURL, error) {
	video, err := s.store.Get(ctx, id)
	if err != nil {
		return AccessURL{}, err
	}
	if video.StoragePath == nil || *video.StoragePath == "" {
		return AccessURL{}, ErrNoStoredFile
	}
	if s.storage == nil {
		return AccessURL{}, ErrStorageUnavailable
	}

	url, ok := s.storage.SignedURL(ctx, *video.StoragePath, ttl)
	if !ok {
		return AccessURL{}, ErrSignedURL
	}
	return AccessURL{Video: video, URL: url, ExpiresIn: ttl}, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
