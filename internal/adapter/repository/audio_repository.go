package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// AudioRepository persists the audio side of the archive: chunk files and
// per-segment transcriptions.
type AudioRepository struct {
	db *gorm.DB
}

func NewAudioRepository(db *gorm.DB) *AudioRepository {
	return &AudioRepository{db: db}
}

// InsertAudioChunk registers a newly opened chunk file for a device and
// returns its id.
func (r *AudioRepository) InsertAudioChunk(ctx context.Context, filePath, deviceName string) (int64, error) {
	chunk := entities.AudioChunk{FilePath: filePath, DeviceName: deviceName}
	if err := r.db.WithContext(ctx).Create(&chunk).Error; err != nil {
		return 0, err
	}
	return chunk.ID, nil
}

// InsertTranscription records one segment's transcript at its chunk
// offset. The transcript may be empty when the engine permanently failed.
func (r *AudioRepository) InsertTranscription(ctx context.Context, t *entities.AudioTranscription) error {
	if t == nil {
		return errors.New("transcription cannot be nil")
	}
	return r.db.WithContext(ctx).Create(t).Error
}

// LatestAudioTimestamp returns the capture timestamp of the newest
// transcription row, or the zero time when none exist.
func (r *AudioRepository) LatestAudioTimestamp(ctx context.Context) (time.Time, error) {
	var t entities.AudioTranscription
	err := r.db.WithContext(ctx).Order("timestamp DESC").First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return t.Timestamp, nil
}
