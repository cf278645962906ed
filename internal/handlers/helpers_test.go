package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/streamscribe/backend/internal/models"
	"github.com/streamscribe/backend/internal/repositories"
	"github.com/streamscribe/backend/internal/videos"
)

// memoryStore mirrors the repository semantics closely enough for handler tests.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]models.Video
	statsErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[int64]models.Video)}
}

func (s *memoryStore) Get(_ context.Context, id int64) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *memoryStore) List(_ context.Context, filter repositories.ListFilter) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Video
	for _, id := range ids {
		v := s.rows[id]
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		out = append(out, v)
	}
	if filter.Skip >= len(out) {
		return []models.Video{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memoryStore) Create(_ context.Context, nv models.NewVideo) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := strings.TrimSpace(nv.Title)
	if title == "" {
		return models.Video{}, repositories.ErrInvalidInput
	}
	if nv.Status == "" {
		nv.Status = models.StatusProcessing
	}
	s.nextID++
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	v := models.Video{
		ID:               s.nextID,
		Title:            title,
		Duration:         nv.Duration,
		FileSizeMB:       nv.FileSizeMB,
		Status:           nv.Status,
		StoragePath:      nv.StoragePath,
		StorageURL:       nv.StorageURL,
		OriginalFilename: nv.OriginalFilename,
		MimeType:         nv.MimeType,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.rows[v.ID] = v
	return v, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, id int64, status models.Status) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if !v.Status.CanTransition(status) {
		return models.Video{}, repositories.ErrInvalidTransition
	}
	v.Status = status
	s.rows[id] = v
	return v, nil
}

func (s *memoryStore) Delete(_ context.Context, id int64) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	delete(s.rows, id)
	return v, nil
}

func (s *memoryStore) Stats(_ context.Context) (models.Stats, error) {
	if s.statsErr != nil {
		return models.Stats{}, s.statsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.Stats{ByStatus: make(map[models.Status]models.StatusTotals)}
	for _, v := range s.rows {
		t := stats.ByStatus[v.Status]
		t.Count++
		if v.Duration != nil {
			t.DurationSeconds += int64(*v.Duration)
		}
		if v.FileSizeMB != nil {
			t.FileSizeMB += int64(*v.FileSizeMB)
		}
		stats.ByStatus[v.Status] = t
	}
	return stats, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type storageStub struct {
	mu        sync.Mutex
	puts      []string
	deletes   []string
	deleteOK  bool
	signFails bool
	lastTTL   time.Duration
}

func (s *storageStub) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	return "https://cdn.test/" + key, nil
}

func (s *storageStub) Delete(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	return s.deleteOK
}

func (s *storageStub) SignedURL(_ context.Context, key string, ttl time.Duration) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTTL = ttl
	if s.signFails {
		return "", false
	}
	return "https://signed.test/" + key, true
}

type limiterStub struct {
	allow bool
	keys  []string
}

func (l *limiterStub) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error { return p.err }

type testEnv struct {
	store   *memoryStore
	storage *storageStub
	mux     *http.ServeMux
}

type envOption func(*Dependencies)

func withoutStorage() envOption {
	return func(d *Dependencies) {
		store := d.Videos.(*memoryStore)
		d.Service = videos.NewService(store, nil, "uploads", d.Service.Limits())
	}
}

func withLimiter(l RateLimiter) envOption {
	return func(d *Dependencies) { d.UploadLimiter = l }
}

func newTestEnv(t *testing.T, maxBytes int64, opts ...envOption) *testEnv {
	t.Helper()
	store := newMemoryStore()
	storage := &storageStub{deleteOK: true}

	deps := Dependencies{
		DB:          pingerStub{},
		Videos:      store,
		Stats:       store,
		Service:     videos.NewService(store, storage, "uploads", videos.Limits{MaxBytes: maxBytes}),
		DownloadTTL: time.Hour,
		StreamTTL:   4 * time.Hour,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return &testEnv{store: store, storage: storage, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return e.do(t, method, target, body, "application/json")
}

func (e *testEnv) upload(t *testing.T, filename, title string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, title, data)
	return e.do(t, http.MethodPost, "/api/videos/upload", body, contentType)
}

func multipartBody(t *testing.T, filename, title string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			t.Fatalf("write title: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rec).Detail
}

var mp4Header = []byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00isomiso2avc1mp41")

func videoBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, mp4Header)
	return data
}

var errBoom = errors.New("boom")
