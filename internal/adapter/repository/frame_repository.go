package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// FrameRepository persists the vision side of the archive: video chunks,
// frames, and their OCR rows.
type FrameRepository struct {
	db *gorm.DB
}

func NewFrameRepository(db *gorm.DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// InsertVideoChunk registers a newly opened chunk file and returns its id.
func (r *FrameRepository) InsertVideoChunk(ctx context.Context, filePath string) (int64, error) {
	chunk := entities.VideoChunk{FilePath: filePath}
	if err := r.db.WithContext(ctx).Create(&chunk).Error; err != nil {
		return 0, err
	}
	return chunk.ID, nil
}

// InsertFrame records one captured frame at its chunk offset.
func (r *FrameRepository) InsertFrame(ctx context.Context, chunkID, offsetIndex int64, timestamp time.Time, monitorID uint32) (int64, error) {
	frame := entities.Frame{
		VideoChunkID: chunkID,
		OffsetIndex:  offsetIndex,
		Timestamp:    timestamp,
		MonitorID:    monitorID,
	}
	if err := r.db.WithContext(ctx).Create(&frame).Error; err != nil {
		return 0, err
	}
	return frame.ID, nil
}

// InsertOCR writes an OCR row and its derived full-text row in one
// transaction, so neither can exist without the other.
func (r *FrameRepository) InsertOCR(ctx context.Context, ocr *entities.OCRText) error {
	if ocr == nil {
		return errors.New("ocr row cannot be nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ocr).Error; err != nil {
			return err
		}
		fts := entities.OCRTextFTS{
			TextID:     ocr.ID,
			FrameID:    ocr.FrameID,
			Text:       ocr.Text,
			AppName:    ocr.AppName,
			WindowName: ocr.WindowName,
		}
		return tx.Create(&fts).Error
	})
}

// LatestFrameTimestamp returns the capture timestamp of the newest frame,
// or the zero time when the archive holds no frames yet.
func (r *FrameRepository) LatestFrameTimestamp(ctx context.Context) (time.Time, error) {
	var frame entities.Frame
	err := r.db.WithContext(ctx).Order("timestamp DESC").First(&frame).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return frame.Timestamp, nil
}
