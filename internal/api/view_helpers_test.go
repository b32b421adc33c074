package api

import "testing"

func TestSortSeriesNewestFirst(t *testing.T) {
	series := []Series{
		{ID: 1, CreatedAt: "2025-06-01T10:00:00.000Z"},
		{ID: 2, CreatedAt: "2025-06-02T10:00:00.000Z"},
		{ID: 3, CreatedAt: "2025-06-01T10:00:00.000Z"},
	}

	sorted := SortSeriesNewestFirst(series)
	if sorted[0].ID != 2 {
		t.Fatalf("first = %d, want 2", sorted[0].ID)
	}
	if sorted[1].ID != 3 || sorted[2].ID != 1 {
		t.Fatalf("tie order = %d,%d, want 3,1", sorted[1].ID, sorted[2].ID)
	}
	if series[0].ID != 1 {
		t.Fatal("input slice should be untouched")
	}
}

func TestFormatDimensions(t *testing.T) {
	if got := FormatDimensions(512, 512); got != "512x512" {
		t.Fatalf("FormatDimensions = %q", got)
	}
	if got := FormatDimensions(0, 512); got != "" {
		t.Fatalf("FormatDimensions zero width = %q, want empty", got)
	}
}

func TestFormatStudyDate(t *testing.T) {
	if got := FormatStudyDate("20250601"); got != "2025-06-01" {
		t.Fatalf("FormatStudyDate = %q", got)
	}
	if got := FormatStudyDate("June 2025"); got != "June 2025" {
		t.Fatalf("FormatStudyDate passthrough = %q", got)
	}
	if got := FormatStudyDate(""); got != "" {
		t.Fatalf("FormatStudyDate empty = %q", got)
	}
}
