package entities

import (
	"time"

	"gorm.io/datatypes"
)

// WindowOCR is the text recognized inside one visible window of a frame.
type WindowOCR struct {
	AppName    string `json:"app_name"`
	WindowName string `json:"window_name"`
	Text       string `json:"text"`
}

// CaptureFrame is one vision capture iteration: the raw image plus the
// per-window OCR results. The image buffer is released as soon as the frame
// has been persisted; nothing downstream retains it.
type CaptureFrame struct {
	MonitorID uint32
	Timestamp time.Time
	Image     []byte // encoded PNG
	Windows   []WindowOCR
}

// VideoChunk is a finalized or currently open container file holding a
// contiguous time range of frames.
type VideoChunk struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FilePath  string    `json:"file_path" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (VideoChunk) TableName() string {
	return "video_chunks"
}

// Frame addresses one captured image inside a video chunk.
type Frame struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	VideoChunkID int64     `json:"video_chunk_id" gorm:"not null;index"`
	OffsetIndex  int64     `json:"offset_index" gorm:"not null"`
	Timestamp    time.Time `json:"timestamp" gorm:"not null;index"`
	MonitorID    uint32    `json:"monitor_id" gorm:"not null"`
}

func (Frame) TableName() string {
	return "frames"
}

// OCRText is the recognized text of one window within one frame. TextJSON
// keeps the raw per-window result for consumers that want structure back.
type OCRText struct {
	ID         int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	FrameID    int64          `json:"frame_id" gorm:"not null;index"`
	Text       string         `json:"text" gorm:"type:text;not null"`
	TextJSON   datatypes.JSON `json:"text_json,omitempty" gorm:"type:jsonb"`
	AppName    string         `json:"app_name" gorm:"type:text;not null;index"`
	WindowName string         `json:"window_name" gorm:"type:text;not null;index"`
}

func (OCRText) TableName() string {
	return "ocr_text"
}

// OCRTextFTS is the denormalized full-text entry derived from an OCRText
// row. It is written in the same transaction as its source row and never
// exists without it.
type OCRTextFTS struct {
	ID         int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TextID     int64  `json:"text_id" gorm:"not null;index"`
	FrameID    int64  `json:"frame_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null"`
	AppName    string `json:"app_name" gorm:"type:text;not null"`
	WindowName string `json:"window_name" gorm:"type:text;not null"`
}

func (OCRTextFTS) TableName() string {
	return "ocr_text_fts"
}
