package catalog_test

import (
	"context"
	"testing"

	"cine/internal/catalog"
	"cine/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series, err := store.Add(ctx, "/media/usb/ct_chest_scan.dcm")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if series.ID == 0 {
		t.Fatal("expected series ID to be assigned")
	}
	if series.Status != catalog.StatusImporting {
		t.Fatalf("expected importing status, got %q", series.Status)
	}

	fetched, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != "/media/usb/ct_chest_scan.dcm" {
		t.Fatalf("unexpected fetched series: %#v", fetched)
	}

	found, err := store.FindBySourcePath(ctx, "/media/usb/ct_chest_scan.dcm")
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if found == nil || found.ID != series.ID {
		t.Fatalf("expected to find inserted series, got %#v", found)
	}
}

func TestAddDerivesTitleFromSourcePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series, err := store.Add(ctx, "/media/usb/ct_chest-scan_042.dcm")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if series.Title != "Ct Chest Scan 042" {
		t.Fatalf("unexpected derived title %q", series.Title)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	series, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if series != nil {
		t.Fatalf("expected nil for missing series, got %#v", series)
	}
}

func TestSetMetadataAndMarkReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series := testsupport.AddSeries(t, store, "/media/usb/study.dcm")

	meta := catalog.Metadata{
		Title:             "Axial Chest CT",
		Modality:          "CT",
		PatientName:       "DOE^JANE",
		PatientID:         "P-1001",
		StudyDate:         "20250601",
		StudyDescription:  "Chest w/o contrast",
		SeriesDescription: "Axial Chest CT",
		ImageWidth:        512,
		ImageHeight:       512,
	}
	if err := store.SetMetadata(ctx, series.ID, meta); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := store.MarkReady(ctx, series.ID, "/tmp/frames/1", 64); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}

	updated, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != catalog.StatusReady {
		t.Fatalf("expected ready status, got %q", updated.Status)
	}
	if updated.Title != "Axial Chest CT" || updated.Modality != "CT" || updated.PatientID != "P-1001" {
		t.Fatalf("metadata not persisted: %#v", updated)
	}
	if updated.FrameDir != "/tmp/frames/1" || updated.FrameCount != 64 {
		t.Fatalf("extraction result not persisted: %#v", updated)
	}
	if updated.ImageWidth != 512 || updated.ImageHeight != 512 {
		t.Fatalf("image dimensions not persisted: %#v", updated)
	}
	if !updated.Ready() {
		t.Fatalf("expected series to report ready: %#v", updated)
	}
}

func TestSetMetadataKeepsDerivedTitleWhenEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series := testsupport.AddSeries(t, store, "/media/usb/brain_mri.dcm")

	if err := store.SetMetadata(ctx, series.ID, catalog.Metadata{Modality: "MR"}); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	updated, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Title != "Brain Mri" {
		t.Fatalf("expected derived title to survive empty metadata title, got %q", updated.Title)
	}
	if updated.Modality != "MR" {
		t.Fatalf("expected modality persisted, got %q", updated.Modality)
	}
}

func TestMarkFailedThenReimportClears(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series := testsupport.AddSeries(t, store, "/media/usb/corrupt.dcm")

	if err := store.MarkFailed(ctx, series.ID, "no pixel data"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	failed, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if failed.Status != catalog.StatusFailed || failed.ErrorMessage != "no pixel data" {
		t.Fatalf("failure not recorded: %#v", failed)
	}
	if failed.Ready() {
		t.Fatal("failed series must not report ready")
	}

	if err := store.MarkImporting(ctx, series.ID); err != nil {
		t.Fatalf("MarkImporting failed: %v", err)
	}
	reset, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reset.Status != catalog.StatusImporting {
		t.Fatalf("expected importing status, got %q", reset.Status)
	}
	if reset.ErrorMessage != "" || reset.FrameDir != "" || reset.FrameCount != 0 {
		t.Fatalf("re-import did not start clean: %#v", reset)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	first := testsupport.AddSeries(t, store, "/data/a.dcm")
	second := testsupport.AddSeries(t, store, "/data/b.dcm")
	third := testsupport.AddSeries(t, store, "/data/c.dcm")

	if err := store.MarkReady(ctx, second.ID, "/tmp/frames/b", 12); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if err := store.MarkFailed(ctx, third.ID, "unreadable"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 series, got %d", len(all))
	}

	ready, err := store.List(ctx, catalog.StatusReady)
	if err != nil {
		t.Fatalf("List ready failed: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != second.ID {
		t.Fatalf("unexpected ready list: %#v", ready)
	}

	pending, err := store.List(ctx, catalog.StatusImporting, catalog.StatusFailed)
	if err != nil {
		t.Fatalf("List importing+failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 series, got %d", len(pending))
	}
	seen := map[int64]bool{}
	for _, s := range pending {
		seen[s.ID] = true
	}
	if !seen[first.ID] || !seen[third.ID] {
		t.Fatalf("unexpected filtered IDs: %#v", seen)
	}
}

func TestUpdatePersistsAllFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series := testsupport.AddSeries(t, store, "/data/update.dcm")

	series.Status = catalog.StatusReady
	series.Title = "Renamed"
	series.FrameDir = "/tmp/frames/u"
	series.FrameCount = 9
	series.Modality = "US"
	series.PatientName = "ROE^SAM"
	series.StudyDate = "20250102"
	series.ImageWidth = 640
	series.ImageHeight = 480
	if err := store.Update(ctx, series); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Title != "Renamed" || fetched.Modality != "US" || fetched.FrameCount != 9 {
		t.Fatalf("update not persisted: %#v", fetched)
	}
	if fetched.UpdatedAt.Before(fetched.CreatedAt) {
		t.Fatalf("updated_at must not precede created_at: %#v", fetched)
	}
}

func TestUpdateNilSeriesFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	if err := store.Update(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil series")
	}
}

func TestRemoveDeletesSeries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	series := testsupport.AddSeries(t, store, "/data/remove.dcm")

	removed, err := store.Remove(ctx, series.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}

	again, err := store.Remove(ctx, series.ID)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if again {
		t.Fatal("expected second removal to report false")
	}

	fetched, err := store.GetByID(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected series gone, got %#v", fetched)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	testsupport.AddSeries(t, store, "/data/s1.dcm")
	ready := testsupport.AddSeries(t, store, "/data/s2.dcm")
	if err := store.MarkReady(ctx, ready.ID, "/tmp/frames/s2", 3); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[catalog.StatusImporting] != 1 || stats[catalog.StatusReady] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	series, err := store.Add(context.Background(), "/data/persist.dcm")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenCatalog(t, cfg)
	fetched, err := reopened.GetByID(context.Background(), series.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != "/data/persist.dcm" {
		t.Fatalf("expected row to survive reopen, got %#v", fetched)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := catalog.ParseStatus(" Ready "); !ok || status != catalog.StatusReady {
		t.Fatalf("expected ready, got %q ok=%v", status, ok)
	}
	if _, ok := catalog.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
