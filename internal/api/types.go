package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Series describes a catalog entry in a transport-friendly format.
type Series struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	SourcePath        string `json:"sourcePath"`
	FrameDir          string `json:"frameDir,omitempty"`
	FrameCount        int    `json:"frameCount"`
	Modality          string `json:"modality,omitempty"`
	PatientName       string `json:"patientName,omitempty"`
	PatientID         string `json:"patientId,omitempty"`
	StudyDate         string `json:"studyDate,omitempty"`
	StudyDescription  string `json:"studyDescription,omitempty"`
	SeriesDescription string `json:"seriesDescription,omitempty"`
	ImageWidth        int    `json:"imageWidth,omitempty"`
	ImageHeight       int    `json:"imageHeight,omitempty"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}

// PlaybackState captures an engine snapshot for API consumers.
type PlaybackState struct {
	CurrentSlice     int     `json:"currentSlice"`
	TotalSlices      int     `json:"totalSlices"`
	Playing          bool    `json:"playing"`
	Animating        bool    `json:"animating"`
	Direction        string  `json:"direction"`
	Mode             string  `json:"mode"`
	BoundaryBehavior string  `json:"boundaryBehavior"`
	RequestedRate    float64 `json:"requestedFrameRate"`
	EffectiveRate    float64 `json:"effectiveFrameRate"`
	ObservedRate     float64 `json:"observedFrameRate,omitempty"`
	BufferedFrames   []int   `json:"bufferedFrames,omitempty"`
	LoadingFrames    []int   `json:"loadingFrames,omitempty"`
	FailedFrames     []int   `json:"failedFrames,omitempty"`
}

// Session describes an open viewing session.
type Session struct {
	ID       string         `json:"id"`
	SeriesID int64          `json:"seriesId"`
	Title    string         `json:"title"`
	OpenedAt string         `json:"openedAt,omitempty"`
	State    *PlaybackState `json:"state,omitempty"`
}

// SessionEvent is one playback notification on a session event stream. Index
// is set for slice_changed, Edge for boundary_reached, and State for the
// stream-opening state event.
type SessionEvent struct {
	Type  string         `json:"type"`
	Index int            `json:"index,omitempty"`
	Edge  string         `json:"edge,omitempty"`
	State *PlaybackState `json:"state,omitempty"`
}

// DependencyStatus captures availability of an external dependency. Severity
// is derived client-side for status rendering; the daemon leaves it empty.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Started       string             `json:"started,omitempty"`
	CatalogDBPath string             `json:"catalogDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	SocketPath    string             `json:"socketPath"`
	APIBind       string             `json:"apiBind,omitempty"`
	MediaWatching bool               `json:"mediaWatching"`
	CatalogStats  map[string]int     `json:"catalogStats,omitempty"`
	Sessions      []Session          `json:"sessions,omitempty"`
	Dependencies  []DependencyStatus `json:"dependencies,omitempty"`
}

// StatusLine is one labeled severity row in a status report.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency readiness for status output.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missingRequired"`
	MissingOptional int    `json:"missingOptional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}

// SeriesListResponse wraps a collection of series for API responses.
type SeriesListResponse struct {
	Series []Series `json:"series"`
}

// SeriesResponse wraps a single series.
type SeriesResponse struct {
	Series Series `json:"series"`
}

// CatalogStatsResponse provides a normalized catalog stats payload.
type CatalogStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// SessionListResponse wraps a collection of sessions for API responses.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session Session `json:"session"`
}

// StateResponse wraps a playback state payload.
type StateResponse struct {
	State PlaybackState `json:"state"`
}

// FrameResponse carries one frame payload with its index.
type FrameResponse struct {
	Index int    `json:"index"`
	Data  []byte `json:"data"`
}
