package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cine/internal/catalog"
	"cine/internal/config"
	"cine/internal/deps"
	"cine/internal/logging"
	"cine/internal/services"
	"cine/internal/services/dicomtool"
)

// Importer manages the DICOM import pipeline.
type Importer struct {
	store  *catalog.Store
	cfg    *config.Config
	logger *slog.Logger
	client dicomtool.Client
}

// New constructs the importer using the configured helper binary. The helper
// resolves sidecar-first so packaged installs work without PATH changes.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Importer {
	var client dicomtool.Client
	binary := deps.ResolveHelperPath(cfg.HelperBinary())
	if cli, err := dicomtool.New(binary, cfg.Import.ProbeTimeout, cfg.Import.ExtractTimeout); err != nil {
		logger.Warn("dicom helper unavailable", logging.Error(err))
	} else {
		client = cli
	}
	return NewWithClient(cfg, store, logger, client)
}

// NewWithClient allows injecting the helper client (used in tests).
func NewWithClient(cfg *config.Config, store *catalog.Store, logger *slog.Logger, client dicomtool.Client) *Importer {
	return &Importer{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "importer"),
		client: client,
	}
}

// Import ensures a catalog row for sourcePath and runs the pipeline on it.
// A series that already imported successfully is returned as is; importing
// and failed rows are restarted.
func (i *Importer) Import(ctx context.Context, sourcePath string) (*catalog.Series, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, services.Wrap(services.ErrValidation, "importer", "import", "source path required", nil)
	}

	existing, err := i.store.FindBySourcePath(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("find series: %w", err)
	}

	var series *catalog.Series
	switch {
	case existing == nil:
		series, err = i.store.Add(ctx, sourcePath)
		if err != nil {
			return nil, fmt.Errorf("add series: %w", err)
		}
	case existing.Status == catalog.StatusReady:
		logging.WithContext(ctx, i.logger).Info("series already imported",
			logging.Int64("series_id", existing.ID),
			logging.String("source_path", sourcePath),
		)
		return existing, nil
	default:
		if err := i.store.MarkImporting(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("restart import: %w", err)
		}
		series, err = i.store.GetByID(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("reload series: %w", err)
		}
	}

	return i.runImport(ctx, series)
}

// Reimport restarts the pipeline for an existing series by identifier.
func (i *Importer) Reimport(ctx context.Context, id int64) (*catalog.Series, error) {
	series, err := i.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if series == nil {
		return nil, services.Wrap(services.ErrNotFound, "importer", "reimport", fmt.Sprintf("series %d not found", id), nil)
	}
	if strings.TrimSpace(series.SourcePath) == "" {
		return nil, services.Wrap(services.ErrValidation, "importer", "reimport", "series has no source path", nil)
	}
	if err := i.store.MarkImporting(ctx, series.ID); err != nil {
		return nil, fmt.Errorf("restart import: %w", err)
	}
	series, err = i.store.GetByID(ctx, series.ID)
	if err != nil {
		return nil, fmt.Errorf("reload series: %w", err)
	}
	return i.runImport(ctx, series)
}

// IsCandidatePath reports whether a path looks like an importable DICOM file.
func IsCandidatePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcm", ".dicom":
		return true
	}
	return false
}

// ScanInbox imports every candidate file under the configured import
// directory. Per-file failures are logged and counted but do not stop the
// scan; the returned series are those ready once the pass finishes, so a
// rescan over unchanged contents reports the same set.
func (i *Importer) ScanInbox(ctx context.Context) ([]*catalog.Series, error) {
	root := strings.TrimSpace(i.cfg.Paths.ImportDir)
	if root == "" {
		return nil, nil
	}
	logger := logging.WithContext(ctx, i.logger)

	var imported []*catalog.Series
	failures := 0
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root && errors.Is(walkErr, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !IsCandidatePath(path) {
			return nil
		}
		series, importErr := i.Import(ctx, path)
		if importErr != nil {
			failures++
			logger.Warn("inbox import failed",
				logging.String("source_path", path),
				logging.Error(importErr),
			)
			return nil
		}
		if series.Ready() {
			imported = append(imported, series)
		}
		return nil
	})
	if err != nil {
		return imported, fmt.Errorf("scan inbox: %w", err)
	}
	if len(imported) > 0 || failures > 0 {
		logger.Info("inbox scan finished",
			logging.Int("imported", len(imported)),
			logging.Int("failed", failures),
		)
	}
	return imported, nil
}

func (i *Importer) runImport(ctx context.Context, series *catalog.Series) (*catalog.Series, error) {
	logger := logging.WithContext(ctx, i.logger)
	started := time.Now()
	logger.Info("starting import",
		logging.Int64("series_id", series.ID),
		logging.String("source_path", series.SourcePath),
	)

	fail := func(marker error, operation, message string, cause error) (*catalog.Series, error) {
		wrapped := services.Wrap(marker, "importer", operation, message, cause)
		if markErr := i.store.MarkFailed(ctx, series.ID, wrapped.Error()); markErr != nil {
			logger.Warn("record import failure", logging.Error(markErr))
		}
		logging.WarnWithContext(logger, "import failed", "import_failed",
			logging.Int64("series_id", series.ID),
			logging.String("source_path", series.SourcePath),
			logging.Error(wrapped),
			logging.String(logging.FieldImpact, "series unavailable for playback"),
			logging.String(logging.FieldErrorHint, "fix the source file or helper installation, then run cine series reimport"),
		)
		return nil, wrapped
	}

	if i.client == nil {
		return fail(services.ErrConfiguration, "helper", "dicom helper not configured", nil)
	}
	if _, err := os.Stat(series.SourcePath); err != nil {
		return fail(services.ErrNotFound, "probe", "source file unavailable", err)
	}

	info, err := i.client.Info(ctx, series.SourcePath)
	if err != nil {
		return fail(toolMarker(err), "probe", "dicom probe failed", err)
	}
	if !info.HasPixelData {
		return fail(services.ErrValidation, "probe", "file has no pixel data", nil)
	}

	result, err := i.client.ExtractSlices(ctx, series.SourcePath, i.cfg.Import.MaxSlices)
	if err != nil {
		return fail(toolMarker(err), "extract", "slice extraction failed", err)
	}
	if len(result.Slices) == 0 {
		return fail(services.ErrExternalTool, "extract", "helper returned no slices", nil)
	}

	frameDir := filepath.Join(i.cfg.Paths.CacheDir, fmt.Sprintf("series-%d", series.ID))
	if err := writeFrames(frameDir, result.Slices); err != nil {
		return fail(services.ErrTransient, "extract", "write frame files", err)
	}

	if err := i.store.SetMetadata(ctx, series.ID, buildMetadata(result.Metadata)); err != nil {
		return fail(services.ErrTransient, "finalize", "record study metadata", err)
	}
	if err := i.store.MarkReady(ctx, series.ID, frameDir, len(result.Slices)); err != nil {
		return fail(services.ErrTransient, "finalize", "record extraction result", err)
	}

	refreshed, err := i.store.GetByID(ctx, series.ID)
	if err != nil {
		return nil, fmt.Errorf("reload series: %w", err)
	}
	logger.Info("import finished",
		logging.Int64("series_id", series.ID),
		logging.Int("frame_count", len(result.Slices)),
		logging.String("frame_dir", frameDir),
		logging.Duration("elapsed", time.Since(started)),
	)
	return refreshed, nil
}

// writeFrames lays the decoded slices down as zero-padded files. The helper
// emits slices in frame order, so file position equals slice position.
func writeFrames(frameDir string, slices []dicomtool.Slice) error {
	if err := os.RemoveAll(frameDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear frame dir: %w", err)
	}
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	for idx, slice := range slices {
		ext := strings.ToLower(strings.TrimSpace(slice.Format))
		if ext == "" {
			ext = "png"
		}
		name := fmt.Sprintf("slice_%04d.%s", idx, ext)
		if err := os.WriteFile(filepath.Join(frameDir, name), slice.Data, 0o644); err != nil {
			return fmt.Errorf("write frame %d: %w", idx, err)
		}
	}
	return nil
}

func buildMetadata(meta dicomtool.Metadata) catalog.Metadata {
	title := strings.TrimSpace(meta.SeriesDescription)
	if title == "" {
		title = strings.TrimSpace(meta.StudyDescription)
	}
	return catalog.Metadata{
		Title:             title,
		Modality:          strings.TrimSpace(meta.Modality),
		PatientName:       strings.TrimSpace(meta.PatientName),
		PatientID:         strings.TrimSpace(meta.PatientID),
		StudyDate:         strings.TrimSpace(meta.StudyDate),
		StudyDescription:  strings.TrimSpace(meta.StudyDescription),
		SeriesDescription: strings.TrimSpace(meta.SeriesDescription),
		ImageWidth:        meta.ImageWidth,
		ImageHeight:       meta.ImageHeight,
	}
}

func toolMarker(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return services.ErrExternalTool
}
