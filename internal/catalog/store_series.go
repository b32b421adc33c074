package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Add inserts a new series awaiting import for the given source path.
func (s *Store) Add(ctx context.Context, sourcePath string) (*Series, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO series (
            status, title, source_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?)`,
		StatusImporting,
		deriveTitle(sourcePath),
		nullableString(sourcePath),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert series: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a series by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

// FindBySourcePath returns the first series matching a source path.
func (s *Store) FindBySourcePath(ctx context.Context, sourcePath string) (*Series, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+seriesColumns+` FROM series WHERE source_path = ? ORDER BY id LIMIT 1`,
		sourcePath,
	)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source path: %w", err)
	}
	return series, nil
}

// Update persists changes to an existing series.
func (s *Store) Update(ctx context.Context, series *Series) error {
	if series == nil {
		return errors.New("series is nil")
	}
	series.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE series
         SET status = ?, title = ?, source_path = ?, frame_dir = ?, frame_count = ?,
             modality = ?, patient_name = ?, patient_id = ?, study_date = ?,
             study_description = ?, series_description = ?, image_width = ?,
             image_height = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		series.Status,
		nullableString(series.Title),
		nullableString(series.SourcePath),
		nullableString(series.FrameDir),
		series.FrameCount,
		nullableString(series.Modality),
		nullableString(series.PatientName),
		nullableString(series.PatientID),
		nullableString(series.StudyDate),
		nullableString(series.StudyDescription),
		nullableString(series.SeriesDescription),
		series.ImageWidth,
		series.ImageHeight,
		nullableString(series.ErrorMessage),
		series.UpdatedAt.Format(time.RFC3339Nano),
		series.ID,
	); err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	return nil
}

// List returns series filtered by status set (or all series when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Series, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + seriesColumns + ` FROM series`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []*Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, rows.Err()
}

// Remove deletes a series by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete series: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of series grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM series GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
