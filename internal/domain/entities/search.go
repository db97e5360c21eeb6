package entities

import (
	"fmt"
	"time"
)

// ContentType filters search results by content family.
type ContentType string

const (
	ContentTypeAll   ContentType = "all"
	ContentTypeOCR   ContentType = "ocr"
	ContentTypeAudio ContentType = "audio"
	ContentTypeFTS   ContentType = "fts"
)

// ParseContentType parses the wire form; empty means "all".
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case "", ContentTypeAll:
		return ContentTypeAll, nil
	case ContentTypeOCR:
		return ContentTypeOCR, nil
	case ContentTypeAudio:
		return ContentTypeAudio, nil
	case ContentTypeFTS:
		return ContentTypeFTS, nil
	default:
		return "", fmt.Errorf("invalid content type %q", s)
	}
}

// SearchQuery is a fully resolved archive predicate: the content type is
// the effective one, after filter forcing.
type SearchQuery struct {
	Query       string
	ContentType ContentType
	StartTime   *time.Time
	EndTime     *time.Time
	AppName     string
	WindowName  string
	Limit       int
	Offset      int
}

// OCRResult carries everything needed to render an OCR match without a
// second lookup.
type OCRResult struct {
	FrameID     int64     `json:"frame_id"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"file_path"`
	OffsetIndex int64     `json:"offset_index"`
	AppName     string    `json:"app_name"`
	WindowName  string    `json:"window_name"`
	Tags        []string  `json:"tags"`
	// Frame is the base64 PNG still at (file_path, offset_index), attached
	// only when the caller asked for frame rehydration.
	Frame string `json:"frame,omitempty"`
}

// AudioResult is a matched audio transcription.
type AudioResult struct {
	ChunkID       int64     `json:"chunk_id"`
	Transcription string    `json:"transcription"`
	Timestamp     time.Time `json:"timestamp"`
	FilePath      string    `json:"file_path"`
	OffsetIndex   int64     `json:"offset_index"`
	Tags          []string  `json:"tags"`
}

// FTSResult is a matched denormalized full-text entry, referencing back to
// its OCR source row.
type FTSResult struct {
	TextID      int64     `json:"text_id"`
	MatchedText string    `json:"matched_text"`
	FrameID     int64     `json:"frame_id"`
	Timestamp   time.Time `json:"timestamp"`
	AppName     string    `json:"app_name"`
	WindowName  string    `json:"window_name"`
	FilePath    string    `json:"file_path"`
	Tags        []string  `json:"tags"`
}

// SearchResult is a tagged union over the three content families. Exactly
// one of the pointers is set.
type SearchResult struct {
	OCR   *OCRResult
	Audio *AudioResult
	FTS   *FTSResult
}

// Timestamp returns the capture timestamp of whichever variant is set.
// Capture timestamps, not insert times, are the archive's ordering key.
func (r SearchResult) Timestamp() time.Time {
	switch {
	case r.OCR != nil:
		return r.OCR.Timestamp
	case r.Audio != nil:
		return r.Audio.Timestamp
	case r.FTS != nil:
		return r.FTS.Timestamp
	default:
		return time.Time{}
	}
}
