package api

import (
	"context"
	"os"

	"cine/internal/catalog"
)

// SeriesRemover captures the catalog operations the remove workflow needs.
type SeriesRemover interface {
	GetByID(ctx context.Context, id int64) (*catalog.Series, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

type RemoveSeriesOutcome string

const (
	RemoveSeriesRemoved  RemoveSeriesOutcome = "removed"
	RemoveSeriesNotFound RemoveSeriesOutcome = "not_found"
	RemoveSeriesInUse    RemoveSeriesOutcome = "in_use"
)

type RemoveSeriesResult struct {
	ID      int64               `json:"id"`
	Outcome RemoveSeriesOutcome `json:"outcome"`
	Detail  string              `json:"detail,omitempty"`
}

type RemoveSeriesResults struct {
	RemovedCount int64                `json:"removedCount"`
	Items        []RemoveSeriesResult `json:"items"`
}

// RemoveSeriesByID removes catalog series one-by-one so each ID can report its
// outcome. A series with open sessions is skipped. Extracted frames are
// deleted with the row unless keepFrames is set; a frame deletion failure
// aborts before the row is touched so a retry can finish the job.
func RemoveSeriesByID(ctx context.Context, store SeriesRemover, inUse func(seriesID int64) bool, keepFrames bool, ids []int64) (RemoveSeriesResults, error) {
	result := RemoveSeriesResults{Items: make([]RemoveSeriesResult, 0, len(ids))}
	for _, id := range ids {
		series, err := store.GetByID(ctx, id)
		if err != nil {
			return RemoveSeriesResults{}, err
		}
		if series == nil {
			result.Items = append(result.Items, RemoveSeriesResult{ID: id, Outcome: RemoveSeriesNotFound})
			continue
		}
		if inUse != nil && inUse(id) {
			result.Items = append(result.Items, RemoveSeriesResult{ID: id, Outcome: RemoveSeriesInUse, Detail: "close open sessions first"})
			continue
		}
		if !keepFrames && series.FrameDir != "" {
			if err := os.RemoveAll(series.FrameDir); err != nil {
				return RemoveSeriesResults{}, err
			}
		}
		removed, err := store.Remove(ctx, id)
		if err != nil {
			return RemoveSeriesResults{}, err
		}
		if removed {
			result.RemovedCount++
			result.Items = append(result.Items, RemoveSeriesResult{ID: id, Outcome: RemoveSeriesRemoved})
			continue
		}
		result.Items = append(result.Items, RemoveSeriesResult{ID: id, Outcome: RemoveSeriesNotFound})
	}
	return result, nil
}

// SeriesImporter captures the import operations the path workflows need.
type SeriesImporter interface {
	Import(ctx context.Context, sourcePath string) (*catalog.Series, error)
}

type ImportPathOutcome string

const (
	ImportPathImported ImportPathOutcome = "imported"
	ImportPathFailed   ImportPathOutcome = "failed"
)

type ImportPathResult struct {
	Path    string            `json:"path"`
	Outcome ImportPathOutcome `json:"outcome"`
	Series  *Series           `json:"series,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type ImportPathsResult struct {
	ImportedCount int                `json:"importedCount"`
	Items         []ImportPathResult `json:"items"`
}

// ImportPaths imports each path in turn so one bad file does not abort the
// batch; per-path failures are reported in the result. Context cancellation
// stops the batch and surfaces as an error.
func ImportPaths(ctx context.Context, service SeriesImporter, paths []string) (ImportPathsResult, error) {
	result := ImportPathsResult{Items: make([]ImportPathResult, 0, len(paths))}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return ImportPathsResult{}, err
		}
		series, err := service.Import(ctx, path)
		if err != nil {
			item := ImportPathResult{Path: path, Outcome: ImportPathFailed, Error: err.Error()}
			if series != nil {
				dto := FromSeries(series)
				item.Series = &dto
			}
			result.Items = append(result.Items, item)
			continue
		}
		item := ImportPathResult{Path: path, Outcome: ImportPathImported}
		if series != nil {
			dto := FromSeries(series)
			item.Series = &dto
		}
		result.ImportedCount++
		result.Items = append(result.Items, item)
	}
	return result, nil
}
