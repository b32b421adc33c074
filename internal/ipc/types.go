package ipc

import "cine/internal/api"

// Series mirrors the HTTP API series DTO for internal IPC callers.
type Series = api.Series

// Session mirrors the HTTP API session DTO.
type Session = api.Session

// PlaybackState mirrors the HTTP API playback snapshot.
type PlaybackState = api.PlaybackState

// PlaybackCommand mirrors the HTTP API playback command request.
type PlaybackCommand = api.PlaybackCommand

// InputEvent mirrors the HTTP API input gesture request.
type InputEvent = api.InputEvent

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// StartRequest brings up daemon surfaces after a stop.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon runtime information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Started       string             `json:"started,omitempty"`
	CatalogDBPath string             `json:"catalog_db_path"`
	LockPath      string             `json:"lock_path"`
	SocketPath    string             `json:"socket_path"`
	APIBind       string             `json:"api_bind,omitempty"`
	MediaWatching bool               `json:"media_watching"`
	CatalogStats  map[string]int     `json:"catalog_stats"`
	Sessions      []Session          `json:"sessions,omitempty"`
	Dependencies  []DependencyStatus `json:"dependencies,omitempty"`

	// Filled client-side by daemonctl.BuildStatusSnapshot, not by the daemon.
	SystemChecks      []api.StatusLine      `json:"system_checks,omitempty"`
	StoragePaths      []api.StatusLine      `json:"storage_paths,omitempty"`
	DependencySummary api.DependencySummary `json:"dependency_summary"`
}

// SeriesListRequest filters catalog listing by status.
type SeriesListRequest struct {
	Statuses []string `json:"statuses"`
}

// SeriesListResponse contains catalog entries.
type SeriesListResponse struct {
	Series []Series `json:"series"`
}

// SeriesDescribeRequest fetches a single series by id.
type SeriesDescribeRequest struct {
	ID int64 `json:"id"`
}

// SeriesDescribeResponse contains a single catalog entry.
type SeriesDescribeResponse struct {
	Series Series `json:"series"`
}

// SeriesImportRequest imports source files by path.
type SeriesImportRequest struct {
	Paths []string `json:"paths"`
}

// SeriesImportResponse reports per-path import outcomes.
type SeriesImportResponse struct {
	ImportedCount int                    `json:"imported_count"`
	Items         []api.ImportPathResult `json:"items"`
}

// SeriesRemoveRequest removes catalog entries by id. KeepFrames leaves the
// extracted frame directories on disk.
type SeriesRemoveRequest struct {
	IDs        []int64 `json:"ids"`
	KeepFrames bool    `json:"keep_frames"`
}

// SeriesRemoveResponse reports per-id removal outcomes.
type SeriesRemoveResponse struct {
	RemovedCount int64                    `json:"removed_count"`
	Items        []api.RemoveSeriesResult `json:"items"`
}

// SeriesReimportRequest restarts extraction for an existing series.
type SeriesReimportRequest struct {
	ID int64 `json:"id"`
}

// SeriesReimportResponse contains the refreshed series.
type SeriesReimportResponse struct {
	Series Series `json:"series"`
}

// SeriesScanRequest imports every candidate in the inbox directory.
type SeriesScanRequest struct{}

// SeriesScanResponse lists series touched by the scan.
type SeriesScanResponse struct {
	Imported []Series `json:"imported"`
}

// SessionOpenRequest opens a playback session for a ready series.
type SessionOpenRequest struct {
	SeriesID int64 `json:"series_id"`
}

// SessionOpenResponse contains the opened session.
type SessionOpenResponse struct {
	Session Session `json:"session"`
}

// SessionCloseRequest closes a session by id.
type SessionCloseRequest struct {
	ID string `json:"id"`
}

// SessionCloseResponse indicates close result.
type SessionCloseResponse struct {
	Closed bool `json:"closed"`
}

// SessionListRequest lists open sessions.
type SessionListRequest struct{}

// SessionListResponse contains open sessions ordered by open time.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionStateRequest fetches one session's playback state.
type SessionStateRequest struct {
	ID string `json:"id"`
}

// SessionStateResponse contains a playback snapshot.
type SessionStateResponse struct {
	State PlaybackState `json:"state"`
}

// SessionEvent pairs an engine notification with the stream sequence a
// poller resumes from.
type SessionEvent struct {
	Sequence uint64 `json:"seq"`
	Type     string `json:"type"`
	Index    int    `json:"index,omitempty"`
	Edge     string `json:"edge,omitempty"`
}

// SessionEventsRequest polls buffered engine events past a cursor. WaitMillis
// greater than zero blocks until an event arrives or the wait elapses.
type SessionEventsRequest struct {
	ID         string `json:"id"`
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
}

// SessionEventsResponse returns events and the next cursor.
type SessionEventsResponse struct {
	Events []SessionEvent `json:"events"`
	Next   uint64         `json:"next"`
}

// SessionFrameRequest fetches one frame payload from a session.
type SessionFrameRequest struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// SessionFrameResponse carries the frame bytes.
type SessionFrameResponse struct {
	Index int    `json:"index"`
	Data  []byte `json:"data"`
}

// CommandRequest routes a playback command to a session engine.
type CommandRequest struct {
	SessionID string          `json:"session_id"`
	Command   PlaybackCommand `json:"command"`
}

// CommandResponse contains the playback state after the command applied.
type CommandResponse struct {
	State PlaybackState `json:"state"`
}

// InputRequest routes a raw input gesture to a session engine.
type InputRequest struct {
	SessionID string     `json:"session_id"`
	Event     InputEvent `json:"event"`
}

// InputResponse contains the playback state after the gesture applied.
type InputResponse struct {
	State PlaybackState `json:"state"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
