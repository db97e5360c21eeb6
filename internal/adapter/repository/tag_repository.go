package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// TagRepository manages tag attachment for vision (frame) and audio
// (chunk) content. All operations are idempotent.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// AddTags attaches the named tags to a content id, creating tag rows as
// needed. Re-adding an existing tag is a no-op.
func (r *TagRepository) AddTags(ctx context.Context, contentType entities.TagContentType, contentID int64, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			tag := entities.Tag{Name: name}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&tag).Error; err != nil {
				return err
			}
			// OnConflict DoNothing leaves ID unset when the tag existed.
			if tag.ID == 0 {
				if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
					return err
				}
			}
			var link any
			switch contentType {
			case entities.TagContentTypeVision:
				link = &entities.VisionTag{VisionID: contentID, TagID: tag.ID}
			case entities.TagContentTypeAudio:
				link = &entities.AudioTag{AudioChunkID: contentID, TagID: tag.ID}
			default:
				return fmt.Errorf("unknown tag content type %q", contentType)
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveTags detaches the named tags from a content id. Removing a tag
// that is not attached is a no-op. Tag rows themselves are kept.
func (r *TagRepository) RemoveTags(ctx context.Context, contentType entities.TagContentType, contentID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	sub := r.db.Model(&entities.Tag{}).Select("id").Where("name IN ?", names)
	switch contentType {
	case entities.TagContentTypeVision:
		return r.db.WithContext(ctx).
			Where("vision_id = ? AND tag_id IN (?)", contentID, sub).
			Delete(&entities.VisionTag{}).Error
	case entities.TagContentTypeAudio:
		return r.db.WithContext(ctx).
			Where("audio_chunk_id = ? AND tag_id IN (?)", contentID, sub).
			Delete(&entities.AudioTag{}).Error
	default:
		return fmt.Errorf("unknown tag content type %q", contentType)
	}
}

// TagsForVision returns the tag names attached to a frame, ordered by name.
func (r *TagRepository) TagsForVision(ctx context.Context, frameID int64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entities.Tag{}).
		Joins("JOIN vision_tags ON vision_tags.tag_id = tags.id").
		Where("vision_tags.vision_id = ?", frameID).
		Order("tags.name").
		Pluck("tags.name", &names).Error
	return names, err
}

// TagsForAudio returns the tag names attached to an audio chunk, ordered
// by name.
func (r *TagRepository) TagsForAudio(ctx context.Context, chunkID int64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entities.Tag{}).
		Joins("JOIN audio_tags ON audio_tags.tag_id = tags.id").
		Where("audio_tags.audio_chunk_id = ?", chunkID).
		Order("tags.name").
		Pluck("tags.name", &names).Error
	return names, err
}
