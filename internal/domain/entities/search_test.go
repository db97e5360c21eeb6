package entities

import (
	"testing"
	"time"
)

func TestParseContentType(t *testing.T) {
	cases := map[string]ContentType{
		"":      ContentTypeAll,
		"all":   ContentTypeAll,
		"ocr":   ContentTypeOCR,
		"audio": ContentTypeAudio,
		"fts":   ContentTypeFTS,
	}
	for in, want := range cases {
		got, err := ParseContentType(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %s want %s", in, got, want)
		}
	}
	if _, err := ParseContentType("video"); err == nil {
		t.Fatal("unknown content type should not parse")
	}
}

func TestSearchResultTimestamp(t *testing.T) {
	ts := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	if got := (SearchResult{OCR: &OCRResult{Timestamp: ts}}).Timestamp(); !got.Equal(ts) {
		t.Fatalf("ocr timestamp %v", got)
	}
	if got := (SearchResult{Audio: &AudioResult{Timestamp: ts}}).Timestamp(); !got.Equal(ts) {
		t.Fatalf("audio timestamp %v", got)
	}
	if got := (SearchResult{FTS: &FTSResult{Timestamp: ts}}).Timestamp(); !got.Equal(ts) {
		t.Fatalf("fts timestamp %v", got)
	}
	if got := (SearchResult{}).Timestamp(); !got.IsZero() {
		t.Fatalf("empty result should have zero timestamp, got %v", got)
	}
}
