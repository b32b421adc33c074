package api

import (
	"fmt"
	"sort"
	"time"
)

// SortSeriesNewestFirst orders series by CreatedAt descending, breaking ties
// by ID descending.
func SortSeriesNewestFirst(series []Series) []Series {
	if len(series) == 0 {
		return nil
	}
	sorted := make([]Series, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool {
		ti := parseAPITime(sorted[i].CreatedAt)
		tj := parseAPITime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

func parseAPITime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// ParseAPITime exposes payload timestamp parsing for consumers that need
// display formatting.
func ParseAPITime(value string) time.Time {
	return parseAPITime(value)
}

// FormatDimensions renders image dimensions for display, or empty when the
// probe recorded none.
func FormatDimensions(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", width, height)
}

// FormatStudyDate renders a DICOM YYYYMMDD study date as YYYY-MM-DD, passing
// through values that do not match.
func FormatStudyDate(value string) string {
	if len(value) != 8 {
		return value
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return value
		}
	}
	return value[:4] + "-" + value[4:6] + "-" + value[6:]
}
