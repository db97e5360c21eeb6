// Package repositories defines the archive interfaces the usecases depend
// on. The gorm implementations live in internal/adapter/repository.
package repositories

import (
	"context"
	"time"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// FrameArchive persists the vision side: chunk files, frames, OCR rows.
type FrameArchive interface {
	InsertVideoChunk(ctx context.Context, filePath string) (int64, error)
	InsertFrame(ctx context.Context, chunkID, offsetIndex int64, timestamp time.Time, monitorID uint32) (int64, error)
	InsertOCR(ctx context.Context, ocr *entities.OCRText) error
	LatestFrameTimestamp(ctx context.Context) (time.Time, error)
}

// AudioArchive persists the audio side: chunk files and transcriptions.
type AudioArchive interface {
	InsertAudioChunk(ctx context.Context, filePath, deviceName string) (int64, error)
	InsertTranscription(ctx context.Context, t *entities.AudioTranscription) error
	LatestAudioTimestamp(ctx context.Context) (time.Time, error)
}

// TagStore attaches and detaches tags idempotently.
type TagStore interface {
	AddTags(ctx context.Context, contentType entities.TagContentType, contentID int64, names []string) error
	RemoveTags(ctx context.Context, contentType entities.TagContentType, contentID int64, names []string) error
	TagsForVision(ctx context.Context, frameID int64) ([]string, error)
	TagsForAudio(ctx context.Context, chunkID int64) ([]string, error)
}

// SearchStore answers archive queries with matching page and count
// predicates.
type SearchStore interface {
	Search(ctx context.Context, q entities.SearchQuery) ([]entities.SearchResult, error)
	CountSearchResults(ctx context.Context, q entities.SearchQuery) (int64, error)
}
