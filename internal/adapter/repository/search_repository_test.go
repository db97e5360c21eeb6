package repository

import (
	"testing"
	"time"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

func TestSortResultsOrdersByTimestampDescending(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	results := []entities.SearchResult{
		{Audio: &entities.AudioResult{ChunkID: 1, Timestamp: base.Add(-2 * time.Minute)}},
		{OCR: &entities.OCRResult{FrameID: 2, Timestamp: base}},
		{OCR: &entities.OCRResult{FrameID: 1, Timestamp: base.Add(-time.Minute)}},
	}

	sortResults(results)

	if results[0].OCR == nil || results[0].OCR.FrameID != 2 {
		t.Fatalf("newest result must sort first, got %+v", results[0])
	}
	if results[2].Audio == nil || results[2].Audio.ChunkID != 1 {
		t.Fatalf("oldest result must sort last, got %+v", results[2])
	}
}

func TestSortResultsTieBreaksByFamilyThenID(t *testing.T) {
	ts := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	results := []entities.SearchResult{
		{FTS: &entities.FTSResult{TextID: 9, Timestamp: ts}},
		{Audio: &entities.AudioResult{ChunkID: 4, Timestamp: ts}},
		{OCR: &entities.OCRResult{FrameID: 3, Timestamp: ts}},
		{OCR: &entities.OCRResult{FrameID: 8, Timestamp: ts}},
	}

	sortResults(results)

	// Equal timestamps: ocr before audio before fts, then descending id.
	if results[0].OCR == nil || results[0].OCR.FrameID != 8 {
		t.Fatalf("expected ocr frame 8 first, got %+v", results[0])
	}
	if results[1].OCR == nil || results[1].OCR.FrameID != 3 {
		t.Fatalf("expected ocr frame 3 second, got %+v", results[1])
	}
	if results[2].Audio == nil {
		t.Fatalf("expected audio third, got %+v", results[2])
	}
	if results[3].FTS == nil {
		t.Fatalf("expected fts last, got %+v", results[3])
	}
}

// fetchFamily mimics one family query: rows come back newest first and
// truncated to offset+limit, exactly what Search asks the database for.
func fetchFamily(rows []entities.SearchResult, offset, limit int) []entities.SearchResult {
	fetch := offset + limit
	if fetch > len(rows) {
		fetch = len(rows)
	}
	return rows[:fetch]
}

func TestSearchPaginationPartitionsResults(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	var ocr, audio []entities.SearchResult
	for i := 0; i < 7; i++ {
		ocr = append(ocr, entities.SearchResult{OCR: &entities.OCRResult{
			FrameID:   int64(100 - i),
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
		}})
	}
	for i := 0; i < 5; i++ {
		audio = append(audio, entities.SearchResult{Audio: &entities.AudioResult{
			ChunkID:   int64(200 - i),
			Timestamp: base.Add(-time.Duration(2*i+1) * time.Minute),
		}})
	}

	// Ground truth: everything merged and sorted, no truncation.
	var all []entities.SearchResult
	all = append(all, ocr...)
	all = append(all, audio...)
	sortResults(all)

	// Walk consecutive pages the way Search builds them: per-family
	// over-fetch to offset+limit, merge, sort, slice.
	const limit = 3
	var paged []entities.SearchResult
	for offset := 0; offset < len(all); offset += limit {
		var merged []entities.SearchResult
		merged = append(merged, fetchFamily(ocr, offset, limit)...)
		merged = append(merged, fetchFamily(audio, offset, limit)...)
		sortResults(merged)
		paged = append(paged, pageSlice(merged, offset, limit)...)
	}

	if len(paged) != len(all) {
		t.Fatalf("pages must partition the result set: %d paged vs %d total", len(paged), len(all))
	}
	for i := range all {
		if familyRank(paged[i]) != familyRank(all[i]) || resultID(paged[i]) != resultID(all[i]) {
			t.Fatalf("page walk diverges from the full ordering at position %d", i)
		}
	}
}

func TestPageSliceBeyondEndIsEmpty(t *testing.T) {
	results := []entities.SearchResult{
		{OCR: &entities.OCRResult{FrameID: 1}},
	}
	if got := pageSlice(results, 5, 3); len(got) != 0 {
		t.Fatalf("offset past the end must yield an empty page, got %d", len(got))
	}
	if got := pageSlice(results, 0, 10); len(got) != 1 {
		t.Fatalf("limit past the end must clamp, got %d", len(got))
	}
}

func TestSortResultsIsStableAcrossRepeats(t *testing.T) {
	ts := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	build := func() []entities.SearchResult {
		return []entities.SearchResult{
			{OCR: &entities.OCRResult{FrameID: 1, Timestamp: ts}},
			{Audio: &entities.AudioResult{ChunkID: 1, Timestamp: ts}},
			{OCR: &entities.OCRResult{FrameID: 2, Timestamp: ts.Add(time.Second)}},
		}
	}

	a, b := build(), build()
	sortResults(a)
	sortResults(b)
	for i := range a {
		if familyRank(a[i]) != familyRank(b[i]) || resultID(a[i]) != resultID(b[i]) {
			t.Fatalf("ordering must be deterministic, position %d differs", i)
		}
	}
}
