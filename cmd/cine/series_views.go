package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cine/internal/ipc"
)

func buildCatalogStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildSeriesRows(series []ipc.Series) [][]string {
	if len(series) == 0 {
		return nil
	}
	sorted := make([]ipc.Series, len(series))
	copy(sorted, series)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseSeriesTime(sorted[i].CreatedAt)
		tj := parseSeriesTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			source := strings.TrimSpace(s.SourcePath)
			if source != "" {
				title = filepath.Base(source)
			} else {
				title = "Unknown"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			title,
			formatStatusLabel(s.Status),
			fmt.Sprintf("%d", s.FrameCount),
			formatOrDash(s.Modality),
			formatOrDash(s.StudyDate),
			formatDisplayTime(s.CreatedAt),
		})
	}
	return rows
}

func buildSessionRows(sessions []ipc.Session) [][]string {
	if len(sessions) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		frame := "-"
		playing := "-"
		if s.State != nil {
			frame = fmt.Sprintf("%d/%d", s.State.CurrentSlice+1, s.State.TotalSlices)
			playing = yesNo(s.State.Playing)
		}
		rows = append(rows, []string{
			shortSessionID(s.ID),
			fmt.Sprintf("%d", s.SeriesID),
			formatOrDash(s.Title),
			frame,
			playing,
		})
	}
	return rows
}

// summarizePlayback renders a one-line state readout for playback commands.
// Frames display 1-based even though the engine counts from zero.
func summarizePlayback(state ipc.PlaybackState) string {
	verb := "paused"
	if state.Playing {
		verb = "playing"
	}
	line := fmt.Sprintf("Frame %d/%d  %s  %.4g fps  %s %s",
		state.CurrentSlice+1,
		state.TotalSlices,
		verb,
		state.EffectiveRate,
		state.Direction,
		state.Mode,
	)
	if state.Animating {
		line += "  (animating)"
	}
	return line
}

func shortSessionID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t := parseSeriesTime(value); !t.IsZero() {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseSeriesTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000Z07:00", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
