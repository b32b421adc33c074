package catalog

import (
	"database/sql"
	"errors"
	"time"
)

const seriesColumns = "id, status, title, source_path, frame_dir, frame_count, modality, patient_name, patient_id, study_date, study_description, series_description, image_width, image_height, error_message, created_at, updated_at"

func scanSeries(scanner interface{ Scan(dest ...any) error }) (*Series, error) {
	var (
		id          int64
		statusStr   string
		title       sql.NullString
		sourcePath  sql.NullString
		frameDir    sql.NullString
		frameCount  sql.NullInt64
		modality    sql.NullString
		patientName sql.NullString
		patientID   sql.NullString
		studyDate   sql.NullString
		studyDesc   sql.NullString
		seriesDesc  sql.NullString
		imageWidth  sql.NullInt64
		imageHeight sql.NullInt64
		errMessage  sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&title,
		&sourcePath,
		&frameDir,
		&frameCount,
		&modality,
		&patientName,
		&patientID,
		&studyDate,
		&studyDesc,
		&seriesDesc,
		&imageWidth,
		&imageHeight,
		&errMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	series := &Series{
		ID:                id,
		Status:            Status(statusStr),
		Title:             title.String,
		SourcePath:        sourcePath.String,
		FrameDir:          frameDir.String,
		FrameCount:        int(frameCount.Int64),
		Modality:          modality.String,
		PatientName:       patientName.String,
		PatientID:         patientID.String,
		StudyDate:         studyDate.String,
		StudyDescription:  studyDesc.String,
		SeriesDescription: seriesDesc.String,
		ImageWidth:        int(imageWidth.Int64),
		ImageHeight:       int(imageHeight.Int64),
		ErrorMessage:      errMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		series.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		series.UpdatedAt = updated
	}
	return series, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
