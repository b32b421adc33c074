package testsupport

import (
	"context"
	"testing"

	"cine/internal/catalog"
	"cine/internal/config"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddSeries creates a new importing series for tests using the provided store.
func AddSeries(t testing.TB, store *catalog.Store, sourcePath string) *catalog.Series {
	t.Helper()

	series, err := store.Add(context.Background(), sourcePath)
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return series
}

// ReadySeries creates a series already marked ready with the given frame layout.
func ReadySeries(t testing.TB, store *catalog.Store, sourcePath, frameDir string, frameCount int) *catalog.Series {
	t.Helper()

	series := AddSeries(t, store, sourcePath)
	if err := store.MarkReady(context.Background(), series.ID, frameDir, frameCount); err != nil {
		t.Fatalf("store.MarkReady: %v", err)
	}
	updated, err := store.GetByID(context.Background(), series.ID)
	if err != nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	if updated == nil {
		t.Fatalf("series %d missing after MarkReady", series.ID)
	}
	return updated
}
