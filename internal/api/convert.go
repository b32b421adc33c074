package api

import (
	"time"

	"cine/internal/catalog"
	"cine/internal/engine"
	"cine/internal/sessions"
)

// FromSeries converts a catalog record to its API representation.
func FromSeries(series *catalog.Series) Series {
	if series == nil {
		return Series{}
	}

	dto := Series{
		ID:                series.ID,
		Title:             series.Title,
		Status:            string(series.Status),
		SourcePath:        series.SourcePath,
		FrameDir:          series.FrameDir,
		FrameCount:        series.FrameCount,
		Modality:          series.Modality,
		PatientName:       series.PatientName,
		PatientID:         series.PatientID,
		StudyDate:         series.StudyDate,
		StudyDescription:  series.StudyDescription,
		SeriesDescription: series.SeriesDescription,
		ImageWidth:        series.ImageWidth,
		ImageHeight:       series.ImageHeight,
		ErrorMessage:      series.ErrorMessage,
	}
	dto.CreatedAt = FormatTime(series.CreatedAt)
	dto.UpdatedAt = FormatTime(series.UpdatedAt)
	return dto
}

// FromSeriesList converts a slice of catalog records into API DTOs.
func FromSeriesList(series []*catalog.Series) []Series {
	if len(series) == 0 {
		return nil
	}
	out := make([]Series, 0, len(series))
	for _, s := range series {
		out = append(out, FromSeries(s))
	}
	return out
}

// FromSnapshot converts an engine snapshot to API playback state.
func FromSnapshot(snap engine.Snapshot) PlaybackState {
	return PlaybackState{
		CurrentSlice:     snap.CurrentSlice,
		TotalSlices:      snap.TotalSlices,
		Playing:          snap.IsPlaying,
		Animating:        snap.IsAnimating,
		Direction:        string(snap.Direction),
		Mode:             string(snap.Mode),
		BoundaryBehavior: string(snap.BoundaryBehavior),
		RequestedRate:    snap.RequestedRate,
		EffectiveRate:    snap.EffectiveRate,
		ObservedRate:     snap.ObservedRate,
		BufferedFrames:   snap.BufferedFrames,
		LoadingFrames:    snap.LoadingFrames,
		FailedFrames:     snap.FailedFrames,
	}
}

// FromSession converts a live session to its API representation, including a
// fresh snapshot of its engine state.
func FromSession(session *sessions.Session) Session {
	if session == nil {
		return Session{}
	}
	dto := Session{
		ID:       session.ID,
		SeriesID: session.SeriesID,
		Title:    session.Title,
		OpenedAt: FormatTime(session.OpenedAt),
	}
	if eng := session.Engine(); eng != nil {
		state := FromSnapshot(eng.Snapshot())
		dto.State = &state
	}
	return dto
}

// FromSessions converts a slice of live sessions into API DTOs.
func FromSessions(list []*sessions.Session) []Session {
	if len(list) == 0 {
		return nil
	}
	out := make([]Session, 0, len(list))
	for _, session := range list {
		out = append(out, FromSession(session))
	}
	return out
}

// FromEvent converts an engine notification for the session event stream.
func FromEvent(event engine.Event) SessionEvent {
	return SessionEvent{
		Type:  string(event.Type),
		Index: event.Index,
		Edge:  string(event.Edge),
	}
}

// StateEvent wraps a playback state as the stream-opening event.
func StateEvent(state PlaybackState) SessionEvent {
	return SessionEvent{Type: "state", State: &state}
}

// MergeCatalogStats produces a string-keyed representation of catalog stats.
func MergeCatalogStats(stats map[catalog.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
