// Package search holds the wire types of the /search endpoint.
package search

import (
	"time"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// Request binds the /search query parameters.
type Request struct {
	Query         string `query:"q"`
	ContentType   string `query:"content_type" validate:"content_type"`
	Limit         int    `query:"limit" validate:"min=0,max=1000"`
	Offset        int    `query:"offset" validate:"min=0"`
	StartTime     string `query:"start_time" validate:"rfc3339"`
	EndTime       string `query:"end_time" validate:"rfc3339"`
	AppName       string `query:"app_name"`
	WindowName    string `query:"window_name"`
	IncludeFrames bool   `query:"include_frames"`
}

// ParseTimeRange converts the bound timestamp strings. Validation has
// already established they are empty or RFC3339.
func (r Request) ParseTimeRange() (start, end *time.Time) {
	if r.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, r.StartTime); err == nil {
			start = &t
		}
	}
	if r.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, r.EndTime); err == nil {
			end = &t
		}
	}
	return start, end
}

// ContentItem is one search result on the wire, tagged by content family.
type ContentItem struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

// FromResult maps a domain result onto its wire form.
func FromResult(r entities.SearchResult) ContentItem {
	switch {
	case r.OCR != nil:
		return ContentItem{Type: "OCR", Content: r.OCR}
	case r.Audio != nil:
		return ContentItem{Type: "Audio", Content: r.Audio}
	default:
		return ContentItem{Type: "FTS", Content: r.FTS}
	}
}
