package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/infrastructure/cache"
	"github.com/retrace-app/retrace/pkg/config"
)

type fakeSearchStore struct {
	results    []entities.SearchResult
	total      int64
	lastQuery  entities.SearchQuery
	countCalls int
}

func (s *fakeSearchStore) Search(_ context.Context, q entities.SearchQuery) ([]entities.SearchResult, error) {
	s.lastQuery = q
	return s.results, nil
}

func (s *fakeSearchStore) CountSearchResults(_ context.Context, q entities.SearchQuery) (int64, error) {
	s.countCalls++
	return s.total, nil
}

func testRetrievalConfig() *config.RetrievalConfig {
	return &config.RetrievalConfig{
		FramePolicy:        "omit",
		CountCacheTTL:      time.Minute,
		FreshnessThreshold: time.Minute,
		StartupGrace:       2 * time.Minute,
	}
}

func newTestService(store *fakeSearchStore, cfg *config.RetrievalConfig) *Service {
	return NewService(store, cache.NewMemoryStore(), cfg, zap.NewNop())
}

func TestSearchForcesOCRWhenWindowFilterPresent(t *testing.T) {
	store := &fakeSearchStore{}
	svc := newTestService(store, testRetrievalConfig())

	_, _, err := svc.Search(context.Background(), SearchRequest{
		ContentType: "audio",
		AppName:     "editor",
	})
	if err != nil {
		t.Fatal(err)
	}
	if store.lastQuery.ContentType != entities.ContentTypeOCR {
		t.Fatalf("app_name filter must force OCR, got %s", store.lastQuery.ContentType)
	}

	_, _, err = svc.Search(context.Background(), SearchRequest{
		ContentType: "all",
		WindowName:  "terminal",
	})
	if err != nil {
		t.Fatal(err)
	}
	if store.lastQuery.ContentType != entities.ContentTypeOCR {
		t.Fatalf("window_name filter must force OCR, got %s", store.lastQuery.ContentType)
	}
}

func TestSearchRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&fakeSearchStore{}, testRetrievalConfig())

	if _, _, err := svc.Search(context.Background(), SearchRequest{ContentType: "video"}); !apperrors.IsCode(err, apperrors.ErrorCode_INVALID_QUERY) {
		t.Fatalf("expected invalid query for unknown content type, got %v", err)
	}
	if _, _, err := svc.Search(context.Background(), SearchRequest{Offset: -1}); !apperrors.IsCode(err, apperrors.ErrorCode_INVALID_QUERY) {
		t.Fatalf("expected invalid query for negative offset, got %v", err)
	}
	start := time.Now()
	end := start.Add(-time.Hour)
	if _, _, err := svc.Search(context.Background(), SearchRequest{StartTime: &start, EndTime: &end}); !apperrors.IsCode(err, apperrors.ErrorCode_INVALID_QUERY) {
		t.Fatalf("expected invalid query for inverted time range, got %v", err)
	}
}

func TestSearchCachesCounts(t *testing.T) {
	store := &fakeSearchStore{total: 42}
	svc := newTestService(store, testRetrievalConfig())

	req := SearchRequest{Query: "hello"}
	_, total, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if total != 42 {
		t.Fatalf("unexpected total %d", total)
	}
	if _, _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if store.countCalls != 1 {
		t.Fatalf("second identical search should hit the count cache, got %d count calls", store.countCalls)
	}
}

func TestSearchFrameRehydrationOmitPolicy(t *testing.T) {
	store := &fakeSearchStore{results: []entities.SearchResult{
		{OCR: &entities.OCRResult{FrameID: 1, FilePath: "good.rtc", OffsetIndex: 0}},
		{OCR: &entities.OCRResult{FrameID: 2, FilePath: "broken.rtc", OffsetIndex: 3}},
		{Audio: &entities.AudioResult{ChunkID: 7}},
	}}
	svc := newTestService(store, testRetrievalConfig())
	svc.readRecord = func(path string, offset int64) ([]byte, error) {
		if path == "broken.rtc" {
			return nil, errors.New("checksum mismatch")
		}
		return []byte("png"), nil
	}

	results, _, err := svc.Search(context.Background(), SearchRequest{IncludeFrames: true})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].OCR.Frame == "" {
		t.Fatal("readable frame should be attached")
	}
	if results[1].OCR.Frame != "" {
		t.Fatal("broken frame should be omitted, not attached")
	}
}

func TestSearchFrameRehydrationFailPolicy(t *testing.T) {
	store := &fakeSearchStore{results: []entities.SearchResult{
		{OCR: &entities.OCRResult{FrameID: 2, FilePath: "broken.rtc", OffsetIndex: 3}},
	}}
	cfg := testRetrievalConfig()
	cfg.FramePolicy = "fail"
	svc := newTestService(store, cfg)
	svc.readRecord = func(string, int64) ([]byte, error) {
		return nil, errors.New("checksum mismatch")
	}

	_, _, err := svc.Search(context.Background(), SearchRequest{IncludeFrames: true})
	if !apperrors.IsCode(err, apperrors.ErrorCode_FRAME_DECODE) {
		t.Fatalf("expected frame decode failure, got %v", err)
	}
}
