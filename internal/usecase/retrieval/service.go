// Package retrieval serves queries against the archive: search across the
// content families, frame rehydration, and capture health.
package retrieval

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/domain/repositories"
	"github.com/retrace-app/retrace/internal/infrastructure/cache"
	"github.com/retrace-app/retrace/pkg/chunkio"
	"github.com/retrace-app/retrace/pkg/config"
)

// DefaultSearchLimit applies when a request leaves limit unset.
const DefaultSearchLimit = 20

// SearchRequest is the resolved search input after transport-level
// validation.
type SearchRequest struct {
	Query         string
	ContentType   string
	Limit         int
	Offset        int
	StartTime     *time.Time
	EndTime       *time.Time
	AppName       string
	WindowName    string
	IncludeFrames bool
}

// Service answers search requests. Pagination totals are optionally cached
// for a short TTL since counting is the expensive half of a search.
type Service struct {
	store  repositories.SearchStore
	counts cache.Store
	cfg    *config.RetrievalConfig
	logger *zap.Logger

	// readRecord resolves (path, offset) to a raw frame; swapped in tests.
	readRecord func(path string, offset int64) ([]byte, error)
}

func NewService(store repositories.SearchStore, counts cache.Store, cfg *config.RetrievalConfig, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		counts:     counts,
		cfg:        cfg,
		logger:     logger,
		readRecord: chunkio.ReadRecord,
	}
}

// Search returns one page of results plus the exact total for the same
// predicate. When app_name or window_name is set the effective content
// type is forced to OCR, because audio rows carry no window metadata.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]entities.SearchResult, int64, error) {
	contentType, err := entities.ParseContentType(req.ContentType)
	if err != nil {
		return nil, 0, apperrors.ErrInvalidQuery(err.Error())
	}
	if req.AppName != "" || req.WindowName != "" {
		contentType = entities.ContentTypeOCR
	}
	if req.Limit <= 0 {
		req.Limit = DefaultSearchLimit
	}
	if req.Offset < 0 {
		return nil, 0, apperrors.ErrInvalidQuery("offset must not be negative")
	}
	if req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime) {
		return nil, 0, apperrors.ErrInvalidQuery("end_time must not precede start_time")
	}

	query := entities.SearchQuery{
		Query:       req.Query,
		ContentType: contentType,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AppName:     req.AppName,
		WindowName:  req.WindowName,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}

	results, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, 0, apperrors.ErrSearchFailed(err)
	}
	total, err := s.countWithCache(ctx, query)
	if err != nil {
		return nil, 0, apperrors.ErrSearchFailed(err)
	}

	if req.IncludeFrames {
		if err := s.attachFrames(results); err != nil {
			return nil, 0, err
		}
	}
	return results, total, nil
}

// countWithCache consults the count cache before hitting the archive. The
// cache is best effort; a miss or a stale store just means a real count.
func (s *Service) countWithCache(ctx context.Context, q entities.SearchQuery) (int64, error) {
	key := countCacheKey(q)
	if cached, ok := s.counts.Get(ctx, key); ok {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return n, nil
		}
	}
	total, err := s.store.CountSearchResults(ctx, q)
	if err != nil {
		return 0, err
	}
	s.counts.Set(ctx, key, strconv.FormatInt(total, 10), s.cfg.CountCacheTTL)
	return total, nil
}

func countCacheKey(q entities.SearchQuery) string {
	start, end := "", ""
	if q.StartTime != nil {
		start = q.StartTime.UTC().Format(time.RFC3339Nano)
	}
	if q.EndTime != nil {
		end = q.EndTime.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("search_count:%s|%s|%s|%s|%s|%s", q.ContentType, q.Query, q.AppName, q.WindowName, start, end)
}

// attachFrames rehydrates the still image behind each OCR result. What a
// decode failure does to the batch is a configuration decision: "omit"
// drops the frame from that row, "fail" fails the whole batch.
func (s *Service) attachFrames(results []entities.SearchResult) error {
	for i := range results {
		ocr := results[i].OCR
		if ocr == nil {
			continue
		}
		payload, err := s.readRecord(ocr.FilePath, ocr.OffsetIndex)
		if err != nil {
			if s.cfg.FramePolicy == "fail" {
				return apperrors.ErrFrameDecode(ocr.FilePath, ocr.OffsetIndex, err)
			}
			s.logger.Warn("failed to rehydrate frame",
				zap.String("file_path", ocr.FilePath),
				zap.Int64("offset_index", ocr.OffsetIndex),
				zap.Error(err))
			continue
		}
		ocr.Frame = base64.StdEncoding.EncodeToString(payload)
	}
	return nil
}
