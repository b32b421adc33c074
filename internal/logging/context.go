package logging

import (
	"context"
	"log/slog"

	"cine/internal/services"
)

// Shared field keys. Components log these with the same spelling so lines
// can be correlated across the daemon.
const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldSessionID carries the viewer session identifier.
	FieldSessionID = "session_id"
	// FieldSeriesID carries the catalog series identifier.
	FieldSeriesID = "series_id"
	// FieldFrameIndex carries a frame position within a series.
	FieldFrameIndex = "frame_index"
	// FieldEventType classifies the event for log filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries operator guidance attached to errors.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts the session and series identifiers stored on ctx as
// slog attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, String(FieldSessionID, id))
	}
	if id, ok := services.SeriesIDFromContext(ctx); ok {
		fields = append(fields, Int64(FieldSeriesID, id))
	}
	return fields
}

// WithContext returns logger augmented with any identifiers carried by ctx.
// A nil logger is replaced with a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
