package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// SearchRepository runs archive queries across the three content families.
// Search and Count share the same predicate builders so pagination totals
// always match page contents.
type SearchRepository struct {
	db   *gorm.DB
	tags *TagRepository
}

func NewSearchRepository(db *gorm.DB) *SearchRepository {
	return &SearchRepository{db: db, tags: NewTagRepository(db)}
}

type ocrRow struct {
	RowID       int64
	FrameID     int64
	Text        string
	Timestamp   time.Time
	FilePath    string
	OffsetIndex int64
	AppName     string
	WindowName  string
}

type audioRow struct {
	RowID         int64
	ChunkID       int64
	Transcription string
	Timestamp     time.Time
	FilePath      string
	OffsetIndex   int64
}

type ftsRow struct {
	RowID       int64
	TextID      int64
	MatchedText string
	FrameID     int64
	Timestamp   time.Time
	AppName     string
	WindowName  string
	FilePath    string
}

func (r *SearchRepository) ocrScope(ctx context.Context, q entities.SearchQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Table("ocr_text").
		Joins("JOIN frames ON frames.id = ocr_text.frame_id").
		Joins("JOIN video_chunks ON video_chunks.id = frames.video_chunk_id")
	if q.Query != "" {
		tx = tx.Where("ocr_text.text ILIKE ?", "%"+q.Query+"%")
	}
	if q.AppName != "" {
		tx = tx.Where("ocr_text.app_name ILIKE ?", "%"+q.AppName+"%")
	}
	if q.WindowName != "" {
		tx = tx.Where("ocr_text.window_name ILIKE ?", "%"+q.WindowName+"%")
	}
	if q.StartTime != nil {
		tx = tx.Where("frames.timestamp >= ?", *q.StartTime)
	}
	if q.EndTime != nil {
		tx = tx.Where("frames.timestamp <= ?", *q.EndTime)
	}
	return tx
}

func (r *SearchRepository) audioScope(ctx context.Context, q entities.SearchQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Table("audio_transcriptions").
		Joins("JOIN audio_chunks ON audio_chunks.id = audio_transcriptions.audio_chunk_id")
	if q.Query != "" {
		tx = tx.Where("audio_transcriptions.transcription ILIKE ?", "%"+q.Query+"%")
	}
	if q.StartTime != nil {
		tx = tx.Where("audio_transcriptions.timestamp >= ?", *q.StartTime)
	}
	if q.EndTime != nil {
		tx = tx.Where("audio_transcriptions.timestamp <= ?", *q.EndTime)
	}
	return tx
}

func (r *SearchRepository) ftsScope(ctx context.Context, q entities.SearchQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Table("ocr_text_fts").
		Joins("JOIN frames ON frames.id = ocr_text_fts.frame_id").
		Joins("JOIN video_chunks ON video_chunks.id = frames.video_chunk_id")
	if q.Query != "" {
		tx = tx.Where("to_tsvector('english', ocr_text_fts.text) @@ plainto_tsquery('english', ?)", q.Query)
	}
	if q.AppName != "" {
		tx = tx.Where("ocr_text_fts.app_name ILIKE ?", "%"+q.AppName+"%")
	}
	if q.WindowName != "" {
		tx = tx.Where("ocr_text_fts.window_name ILIKE ?", "%"+q.WindowName+"%")
	}
	if q.StartTime != nil {
		tx = tx.Where("frames.timestamp >= ?", *q.StartTime)
	}
	if q.EndTime != nil {
		tx = tx.Where("frames.timestamp <= ?", *q.EndTime)
	}
	return tx
}

// Search returns one page of results ordered by capture timestamp
// descending. When the content type spans multiple families, each family
// is over-fetched to offset+limit rows and merged deterministically, so
// consecutive pages partition the result set without gaps or duplicates.
func (r *SearchRepository) Search(ctx context.Context, q entities.SearchQuery) ([]entities.SearchResult, error) {
	fetch := q.Offset + q.Limit
	var merged []entities.SearchResult

	if q.ContentType == entities.ContentTypeAll || q.ContentType == entities.ContentTypeOCR {
		var rows []ocrRow
		err := r.ocrScope(ctx, q).
			Select("ocr_text.id AS row_id, ocr_text.frame_id, ocr_text.text, frames.timestamp, video_chunks.file_path, frames.offset_index, ocr_text.app_name, ocr_text.window_name").
			Order("frames.timestamp DESC, ocr_text.id DESC").
			Limit(fetch).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			merged = append(merged, entities.SearchResult{OCR: &entities.OCRResult{
				FrameID:     row.FrameID,
				Text:        row.Text,
				Timestamp:   row.Timestamp,
				FilePath:    row.FilePath,
				OffsetIndex: row.OffsetIndex,
				AppName:     row.AppName,
				WindowName:  row.WindowName,
			}})
		}
	}

	if q.ContentType == entities.ContentTypeAll || q.ContentType == entities.ContentTypeAudio {
		var rows []audioRow
		err := r.audioScope(ctx, q).
			Select("audio_transcriptions.id AS row_id, audio_transcriptions.audio_chunk_id AS chunk_id, audio_transcriptions.transcription, audio_transcriptions.timestamp, audio_chunks.file_path, audio_transcriptions.offset_index").
			Order("audio_transcriptions.timestamp DESC, audio_transcriptions.id DESC").
			Limit(fetch).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			merged = append(merged, entities.SearchResult{Audio: &entities.AudioResult{
				ChunkID:       row.ChunkID,
				Transcription: row.Transcription,
				Timestamp:     row.Timestamp,
				FilePath:      row.FilePath,
				OffsetIndex:   row.OffsetIndex,
			}})
		}
	}

	if q.ContentType == entities.ContentTypeFTS {
		var rows []ftsRow
		err := r.ftsScope(ctx, q).
			Select("ocr_text_fts.id AS row_id, ocr_text_fts.text_id, ocr_text_fts.text AS matched_text, ocr_text_fts.frame_id, frames.timestamp, ocr_text_fts.app_name, ocr_text_fts.window_name, video_chunks.file_path").
			Order("frames.timestamp DESC, ocr_text_fts.id DESC").
			Limit(fetch).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			merged = append(merged, entities.SearchResult{FTS: &entities.FTSResult{
				TextID:      row.TextID,
				MatchedText: row.MatchedText,
				FrameID:     row.FrameID,
				Timestamp:   row.Timestamp,
				AppName:     row.AppName,
				WindowName:  row.WindowName,
				FilePath:    row.FilePath,
			}})
		}
	}

	sortResults(merged)
	page := pageSlice(merged, q.Offset, q.Limit)
	if err := r.loadTags(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

// pageSlice cuts one page out of the merged, sorted result set.
func pageSlice(results []entities.SearchResult, offset, limit int) []entities.SearchResult {
	if offset >= len(results) {
		return []entities.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// CountSearchResults returns the exact total for the same predicate
// Search applies, for pagination totals.
func (r *SearchRepository) CountSearchResults(ctx context.Context, q entities.SearchQuery) (int64, error) {
	var total int64
	if q.ContentType == entities.ContentTypeAll || q.ContentType == entities.ContentTypeOCR {
		var n int64
		if err := r.ocrScope(ctx, q).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	if q.ContentType == entities.ContentTypeAll || q.ContentType == entities.ContentTypeAudio {
		var n int64
		if err := r.audioScope(ctx, q).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	if q.ContentType == entities.ContentTypeFTS {
		var n int64
		if err := r.ftsScope(ctx, q).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// sortResults orders merged rows newest first with a total order: family
// (ocr, audio, fts) then descending id break timestamp ties, keeping
// pagination stable across requests.
func sortResults(results []entities.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := results[i].Timestamp(), results[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		fi, fj := familyRank(results[i]), familyRank(results[j])
		if fi != fj {
			return fi < fj
		}
		return resultID(results[i]) > resultID(results[j])
	})
}

func familyRank(r entities.SearchResult) int {
	switch {
	case r.OCR != nil:
		return 0
	case r.Audio != nil:
		return 1
	default:
		return 2
	}
}

func resultID(r entities.SearchResult) int64 {
	switch {
	case r.OCR != nil:
		return r.OCR.FrameID
	case r.Audio != nil:
		return r.Audio.ChunkID
	case r.FTS != nil:
		return r.FTS.TextID
	default:
		return 0
	}
}

func (r *SearchRepository) loadTags(ctx context.Context, page []entities.SearchResult) error {
	for i := range page {
		switch {
		case page[i].OCR != nil:
			names, err := r.tags.TagsForVision(ctx, page[i].OCR.FrameID)
			if err != nil {
				return err
			}
			page[i].OCR.Tags = names
		case page[i].Audio != nil:
			names, err := r.tags.TagsForAudio(ctx, page[i].Audio.ChunkID)
			if err != nil {
				return err
			}
			page[i].Audio.Tags = names
		case page[i].FTS != nil:
			names, err := r.tags.TagsForVision(ctx, page[i].FTS.FrameID)
			if err != nil {
				return err
			}
			page[i].FTS.Tags = names
		}
	}
	return nil
}
