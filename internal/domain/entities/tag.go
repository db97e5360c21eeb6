package entities

// TagContentType selects which content family a tag operation targets.
type TagContentType string

const (
	TagContentTypeVision TagContentType = "vision"
	TagContentTypeAudio  TagContentType = "audio"
)

// Tag is a user- or system-assigned label. Tags attach many-to-many to
// vision and audio content ids and are only removed explicitly.
type Tag struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:text;not null;uniqueIndex"`
}

func (Tag) TableName() string {
	return "tags"
}

// VisionTag links a tag to a frame. Vision content is addressed by frame
// id everywhere tags are exposed.
type VisionTag struct {
	VisionID int64 `json:"vision_id" gorm:"not null;uniqueIndex:idx_vision_tags_pair"`
	TagID    int64 `json:"tag_id" gorm:"not null;uniqueIndex:idx_vision_tags_pair"`
}

func (VisionTag) TableName() string {
	return "vision_tags"
}

// AudioTag links a tag to an audio chunk.
type AudioTag struct {
	AudioChunkID int64 `json:"audio_chunk_id" gorm:"not null;uniqueIndex:idx_audio_tags_pair"`
	TagID        int64 `json:"tag_id" gorm:"not null;uniqueIndex:idx_audio_tags_pair"`
}

func (AudioTag) TableName() string {
	return "audio_tags"
}
