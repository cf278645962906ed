package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamscribe/backend/internal/db"
	"github.com/streamscribe/backend/internal/models"
)

const videoColumns = `id, title, duration, file_size_mb, status, storage_path, storage_url, original_filename, mime_type, created_at, updated_at`

const pgCheckViolation = "23514"

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
// Every write commits immediately; concurrent writers to one row are last-writer-wins.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Get fetches a single video by id.
func (r *PostgresVideoRepository) Get(ctx context.Context, id int64) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// List returns a page of videos ordered by id, optionally filtered by status.
func (r *PostgresVideoRepository) List(ctx context.Context, filter ListFilter) ([]models.Video, error) {
	if filter.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", ErrInvalidInput)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE ($1 = '' OR status = $1)
        ORDER BY id
        OFFSET $2
        LIMIT $3
    `, string(filter.Status), filter.Skip, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// Create inserts a video row. The title is trimmed; an empty title or a
// non-positive duration is rejected with ErrInvalidInput.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.NewVideo) (models.Video, error) {
	video.Title = strings.TrimSpace(video.Title)
	if video.Title == "" {
		return models.Video{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if video.Duration != nil && *video.Duration <= 0 {
		return models.Video{}, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if video.FileSizeMB != nil && *video.FileSizeMB < 0 {
		return models.Video{}, fmt.Errorf("%w: file size must not be negative", ErrInvalidInput)
	}
	if video.Status == "" {
		video.Status = models.StatusProcessing
	}
	if !video.Status.Valid() {
		return models.Video{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, video.Status)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO videos (title, duration, file_size_mb, status, storage_path, storage_url, original_filename, mime_type)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+videoColumns,
		video.Title, video.Duration, video.FileSizeMB, string(video.Status),
		video.StoragePath, video.StorageURL, video.OriginalFilename, video.MimeType)

	created, err := scanVideo(row)
	if err != nil {
		if isCheckViolation(err) {
			return models.Video{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return models.Video{}, fmt.Errorf("insert video: %w", err)
	}
	return created, nil
}

// UpdateStatus moves a video to status. The allowed-predecessor check runs
// inside the UPDATE so a concurrent writer cannot slip an illegal transition
// between read and write.
func (r *PostgresVideoRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Video, error) {
	if !status.Valid() {
		return models.Video{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	from := models.Predecessors(status)
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET status = $2, updated_at = NOW()
        WHERE id = $1 AND status = ANY($3)
        RETURNING `+videoColumns, id, string(status), allowed)

	updated, err := scanVideo(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, fmt.Errorf("update video status: %w", err)
	}

	var current string
	if err := conn.QueryRow(ctx, `SELECT status FROM videos WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video status: %w", err)
	}
	return models.Video{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
}

// Delete removes a video row and returns it as it was before deletion.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id int64) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `DELETE FROM videos WHERE id = $1 RETURNING `+videoColumns, id)
	deleted, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("delete video: %w", err)
	}
	return deleted, nil
}

// CountByStatus returns the number of videos per status present in the table.
func (r *PostgresVideoRepository) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	stats, err := r.Stats(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int64, len(stats.ByStatus))
	for status, totals := range stats.ByStatus {
		counts[status] = totals.Count
	}
	return counts, nil
}

// Stats aggregates counts, durations and sizes grouped by status in a single
// statement, so the per-status counts always sum to the total.
func (r *PostgresVideoRepository) Stats(ctx context.Context) (models.Stats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT status,
               COUNT(*)::BIGINT,
               COALESCE(SUM(duration), 0)::BIGINT,
               COALESCE(SUM(file_size_mb), 0)::BIGINT
        FROM videos
        GROUP BY status
    `)
	if err != nil {
		return models.Stats{}, fmt.Errorf("query video stats: %w", err)
	}
	defer rows.Close()

	stats := models.Stats{ByStatus: make(map[models.Status]models.StatusTotals)}
	for rows.Next() {
		var (
			status string
			totals models.StatusTotals
		)
		if err := rows.Scan(&status, &totals.Count, &totals.DurationSeconds, &totals.FileSizeMB); err != nil {
			return models.Stats{}, fmt.Errorf("scan video stats: %w", err)
		}
		stats.ByStatus[models.Status(status)] = totals
	}
	if err := rows.Err(); err != nil {
		return models.Stats{}, fmt.Errorf("iterate video stats: %w", err)
	}

	return stats, nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var (
		video  models.Video
		status string
	)
	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Duration,
		&video.FileSizeMB,
		&status,
		&video.StoragePath,
		&video.StorageURL,
		&video.OriginalFilename,
		&video.MimeType,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return models.Video{}, err
	}
	video.Status = models.Status(status)
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return video, nil
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
