package catalog

import (
	"context"
	"fmt"
	"time"
)

// SetMetadata records probed study metadata on a series while it imports.
func (s *Store) SetMetadata(ctx context.Context, id int64, meta Metadata) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE series
         SET title = COALESCE(?, title), modality = ?, patient_name = ?, patient_id = ?,
             study_date = ?, study_description = ?, series_description = ?,
             image_width = ?, image_height = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(meta.Title),
		nullableString(meta.Modality),
		nullableString(meta.PatientName),
		nullableString(meta.PatientID),
		nullableString(meta.StudyDate),
		nullableString(meta.StudyDescription),
		nullableString(meta.SeriesDescription),
		meta.ImageWidth,
		meta.ImageHeight,
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}

// MarkReady completes an import, recording the extracted frame directory and count.
func (s *Store) MarkReady(ctx context.Context, id int64, frameDir string, frameCount int) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE series
         SET status = ?, frame_dir = ?, frame_count = ?, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusReady,
		nullableString(frameDir),
		frameCount,
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	return nil
}

// MarkFailed records an import failure with its message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE series SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// MarkImporting returns a series to the importing state, clearing any previous
// error and extraction result so a re-import starts clean.
func (s *Store) MarkImporting(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE series
         SET status = ?, frame_dir = NULL, frame_count = 0, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusImporting,
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("mark importing: %w", err)
	}
	return nil
}
