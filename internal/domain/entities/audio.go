package entities

import "time"

// AudioSegment is one audio capture iteration: a contiguous run of PCM
// blocks from a single device, closed either by a speech-to-silence
// transition or by the configured chunk duration.
type AudioSegment struct {
	Device    AudioDevice
	Start     time.Time
	End       time.Time
	PCM       []byte // 16 kHz mono s16le
	HasSpeech bool
}

// Duration is the wall-clock span of the segment.
func (s AudioSegment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// AudioChunk is a finalized or currently open container file holding a
// contiguous time range of audio segments for one device.
type AudioChunk struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FilePath   string    `json:"file_path" gorm:"type:text;not null;uniqueIndex"`
	DeviceName string    `json:"device_name" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (AudioChunk) TableName() string {
	return "audio_chunks"
}

// AudioTranscription is the persisted transcript of one segment. The
// transcript may be empty when the engine permanently failed; the segment's
// timing stays queryable either way.
type AudioTranscription struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AudioChunkID  int64     `json:"audio_chunk_id" gorm:"not null;index"`
	OffsetIndex   int64     `json:"offset_index" gorm:"not null"`
	Timestamp     time.Time `json:"timestamp" gorm:"not null;index"`
	Transcription string    `json:"transcription" gorm:"type:text;not null"`
	DeviceName    string    `json:"device_name" gorm:"type:text;not null"`
}

func (AudioTranscription) TableName() string {
	return "audio_transcriptions"
}
