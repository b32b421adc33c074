package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	seriesIDKey  contextKey = "series_id"
	requestIDKey contextKey = "request_id"
)

// WithSessionID annotates context with the viewer session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the viewer session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSeriesID annotates context with the catalog series identifier.
func WithSeriesID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, seriesIDKey, id)
}

// SeriesIDFromContext extracts the catalog series identifier if present.
func SeriesIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(seriesIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
