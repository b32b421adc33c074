package api

import (
	"testing"
	"time"

	"cine/internal/catalog"
	"cine/internal/engine"
	"cine/internal/frameindex"
	"cine/internal/playback"
)

func TestFromSeriesMapsFields(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	series := &catalog.Series{
		ID:                7,
		Status:            catalog.StatusReady,
		Title:             "Chest Ct",
		SourcePath:        "/media/usb/chest_ct.dcm",
		FrameDir:          "/var/cache/cine/series-7",
		FrameCount:        42,
		Modality:          "CT",
		PatientName:       "DOE^JANE",
		PatientID:         "P-100",
		StudyDate:         "20250530",
		StudyDescription:  "Chest",
		SeriesDescription: "Axial",
		ImageWidth:        512,
		ImageHeight:       512,
		CreatedAt:         created,
		UpdatedAt:         created.Add(time.Minute),
	}

	dto := FromSeries(series)
	if dto.ID != 7 || dto.Status != "ready" || dto.Title != "Chest Ct" {
		t.Fatalf("unexpected identity fields: %+v", dto)
	}
	if dto.FrameCount != 42 || dto.FrameDir != "/var/cache/cine/series-7" {
		t.Fatalf("unexpected frame fields: %+v", dto)
	}
	if dto.Modality != "CT" || dto.PatientID != "P-100" || dto.ImageWidth != 512 {
		t.Fatalf("unexpected metadata fields: %+v", dto)
	}
	if dto.CreatedAt != "2025-06-01T10:00:00.000Z" {
		t.Fatalf("CreatedAt = %q", dto.CreatedAt)
	}
	if dto.UpdatedAt != "2025-06-01T10:01:00.000Z" {
		t.Fatalf("UpdatedAt = %q", dto.UpdatedAt)
	}
}

func TestFromSeriesNil(t *testing.T) {
	if dto := FromSeries(nil); dto != (Series{}) {
		t.Fatalf("expected zero DTO, got %+v", dto)
	}
}

func TestFromSnapshotMapsFields(t *testing.T) {
	snap := engine.Snapshot{
		CurrentSlice:     3,
		TotalSlices:      10,
		IsPlaying:        true,
		Direction:        playback.DirectionBackward,
		Mode:             playback.ModeBounce,
		BoundaryBehavior: frameindex.BoundaryStop,
		RequestedRate:    24,
		EffectiveRate:    24,
		BufferedFrames:   []int{2, 3, 4},
	}

	state := FromSnapshot(snap)
	if state.CurrentSlice != 3 || state.TotalSlices != 10 || !state.Playing {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.Direction != "backward" || state.Mode != "bounce" || state.BoundaryBehavior != "stop" {
		t.Fatalf("unexpected enums: %+v", state)
	}
	if state.RequestedRate != 24 || len(state.BufferedFrames) != 3 {
		t.Fatalf("unexpected rate or buffers: %+v", state)
	}
}

func TestFromEvent(t *testing.T) {
	moved := FromEvent(engine.Event{Type: engine.EventSliceChanged, Index: 5})
	if moved.Type != "slice_changed" || moved.Index != 5 || moved.Edge != "" {
		t.Fatalf("unexpected slice event: %+v", moved)
	}
	bounced := FromEvent(engine.Event{Type: engine.EventBoundaryReached, Edge: frameindex.EdgeEnd})
	if bounced.Type != "boundary_reached" || bounced.Edge != "end" {
		t.Fatalf("unexpected boundary event: %+v", bounced)
	}
}

func TestStateEventCarriesState(t *testing.T) {
	event := StateEvent(PlaybackState{CurrentSlice: 4, TotalSlices: 9})
	if event.Type != "state" || event.State == nil || event.State.CurrentSlice != 4 {
		t.Fatalf("unexpected state event: %+v", event)
	}
}

func TestMergeCatalogStats(t *testing.T) {
	merged := MergeCatalogStats(map[catalog.Status]int{
		catalog.StatusReady:  2,
		catalog.StatusFailed: 1,
	})
	if merged["ready"] != 2 || merged["failed"] != 1 {
		t.Fatalf("unexpected merge: %v", merged)
	}
}

func TestFormatTimeZero(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "" {
		t.Fatalf("FormatTime(zero) = %q, want empty", got)
	}
}
