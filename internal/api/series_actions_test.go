package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cine/internal/catalog"
)

type seriesRemoverStub struct {
	series map[int64]*catalog.Series
}

func (s *seriesRemoverStub) GetByID(_ context.Context, id int64) (*catalog.Series, error) {
	return s.series[id], nil
}

func (s *seriesRemoverStub) Remove(_ context.Context, id int64) (bool, error) {
	if _, ok := s.series[id]; !ok {
		return false, nil
	}
	delete(s.series, id)
	return true, nil
}

func TestRemoveSeriesByID(t *testing.T) {
	frameDir := filepath.Join(t.TempDir(), "series-1")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stub := &seriesRemoverStub{series: map[int64]*catalog.Series{
		1: {ID: 1, FrameDir: frameDir},
		3: {ID: 3},
	}}

	result, err := RemoveSeriesByID(context.Background(), stub, nil, false, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("RemoveSeriesByID: %v", err)
	}
	if result.RemovedCount != 2 {
		t.Fatalf("RemovedCount = %d, want 2", result.RemovedCount)
	}
	if result.Items[0].Outcome != RemoveSeriesRemoved {
		t.Fatalf("item 1 outcome = %s", result.Items[0].Outcome)
	}
	if result.Items[1].Outcome != RemoveSeriesNotFound {
		t.Fatalf("item 2 outcome = %s", result.Items[1].Outcome)
	}
	if result.Items[2].Outcome != RemoveSeriesRemoved {
		t.Fatalf("item 3 outcome = %s", result.Items[2].Outcome)
	}
	if _, err := os.Stat(frameDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected frame dir removed, stat err = %v", err)
	}
}

func TestRemoveSeriesByIDSkipsOpenSessions(t *testing.T) {
	stub := &seriesRemoverStub{series: map[int64]*catalog.Series{5: {ID: 5}}}
	inUse := func(id int64) bool { return id == 5 }

	result, err := RemoveSeriesByID(context.Background(), stub, inUse, false, []int64{5})
	if err != nil {
		t.Fatalf("RemoveSeriesByID: %v", err)
	}
	if result.RemovedCount != 0 {
		t.Fatalf("RemovedCount = %d, want 0", result.RemovedCount)
	}
	if result.Items[0].Outcome != RemoveSeriesInUse {
		t.Fatalf("outcome = %s, want %s", result.Items[0].Outcome, RemoveSeriesInUse)
	}
	if stub.series[5] == nil {
		t.Fatal("series should survive an in_use skip")
	}
}

func TestRemoveSeriesByIDKeepsFrames(t *testing.T) {
	frameDir := filepath.Join(t.TempDir(), "series-2")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stub := &seriesRemoverStub{series: map[int64]*catalog.Series{2: {ID: 2, FrameDir: frameDir}}}

	if _, err := RemoveSeriesByID(context.Background(), stub, nil, true, []int64{2}); err != nil {
		t.Fatalf("RemoveSeriesByID: %v", err)
	}
	if _, err := os.Stat(frameDir); err != nil {
		t.Fatalf("expected frame dir kept: %v", err)
	}
}

type importerStub struct {
	failAt string
}

func (s *importerStub) Import(_ context.Context, sourcePath string) (*catalog.Series, error) {
	if sourcePath == s.failAt {
		return nil, errors.New("probe failed")
	}
	return &catalog.Series{ID: 1, Status: catalog.StatusReady, SourcePath: sourcePath}, nil
}

func TestImportPaths(t *testing.T) {
	result, err := ImportPaths(context.Background(), &importerStub{failAt: "/in/bad.dcm"}, []string{"/in/good.dcm", "/in/bad.dcm"})
	if err != nil {
		t.Fatalf("ImportPaths: %v", err)
	}
	if result.ImportedCount != 1 {
		t.Fatalf("ImportedCount = %d, want 1", result.ImportedCount)
	}
	if result.Items[0].Outcome != ImportPathImported || result.Items[0].Series == nil {
		t.Fatalf("item 0 = %+v", result.Items[0])
	}
	if result.Items[1].Outcome != ImportPathFailed || result.Items[1].Error == "" {
		t.Fatalf("item 1 = %+v", result.Items[1])
	}
}

func TestImportPathsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ImportPaths(ctx, &importerStub{}, []string{"/in/a.dcm"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
