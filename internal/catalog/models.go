package catalog

import (
	"strings"
	"time"
)

// Status represents the import lifecycle of a series.
type Status string

const (
	StatusImporting Status = "importing"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusImporting,
	StatusReady,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a known status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Metadata carries the fields probed from a series source before extraction.
type Metadata struct {
	Title             string
	Modality          string
	PatientName       string
	PatientID         string
	StudyDate         string
	StudyDescription  string
	SeriesDescription string
	ImageWidth        int
	ImageHeight       int
}

// Series represents an imported image sequence persisted in SQLite.
type Series struct {
	ID                int64
	Status            Status
	Title             string
	SourcePath        string
	FrameDir          string
	FrameCount        int
	Modality          string
	PatientName       string
	PatientID         string
	StudyDate         string
	StudyDescription  string
	SeriesDescription string
	ImageWidth        int
	ImageHeight       int
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Ready reports whether the series has extracted frames available for playback.
func (s *Series) Ready() bool {
	return s != nil && s.Status == StatusReady && s.FrameCount > 0 && s.FrameDir != ""
}
