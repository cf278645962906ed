package models

import "time"

// Video is the metadata row for a hosted video and its stored object.
type Video struct {
	ID               int64
	Title            string
	Duration         *int
	FileSizeMB       *int
	Status           Status
	StoragePath      *string
	StorageURL       *string
	OriginalFilename *string
	MimeType         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewVideo carries the caller-supplied fields of a video insert.
type NewVideo struct {
	Title            string
	Duration         *int
	FileSizeMB       *int
	Status           Status
	StoragePath      *string
	StorageURL       *string
	OriginalFilename *string
	MimeType         *string
}

// Transcript holds the text extracted from a video. Rows reference a video by
// id only; there is no enforced foreign key.
type Transcript struct {
	ID        int64
	VideoID   int64
	FullText  string
	Language  string
	WordCount *int
	CreatedAt time.Time
}

// StatusTotals aggregates the videos sharing one status.
type StatusTotals struct {
	Count           int64
	DurationSeconds int64
	FileSizeMB      int64
}

// Stats is an aggregate snapshot of the videos table.
type Stats struct {
	ByStatus map[Status]StatusTotals
}

// TotalVideos sums the per-status counts.
func (s Stats) TotalVideos() int64 {
	var total int64
	for _, t := range s.ByStatus {
		total += t.Count
	}
	return total
}

// TotalDurationSeconds sums durations across all statuses.
func (s Stats) TotalDurationSeconds() int64 {
	var total int64
	for _, t := range s.ByStatus {
		total += t.DurationSeconds
	}
	return total
}

// TotalFileSizeMB sums stored megabytes across all statuses.
func (s Stats) TotalFileSizeMB() int64 {
	var total int64
	for _, t := range s.ByStatus {
		total += t.FileSizeMB
	}
	return total
}
