package api

import (
	"context"

	"cine/internal/catalog"
)

// CatalogReader abstracts catalog persistence interactions needed for API queries.
type CatalogReader interface {
	List(ctx context.Context, statuses ...catalog.Status) ([]*catalog.Series, error)
	Stats(ctx context.Context) (map[catalog.Status]int, error)
	GetByID(ctx context.Context, id int64) (*catalog.Series, error)
}

// SeriesService exposes read-only catalog operations returning API DTOs.
type SeriesService struct {
	store CatalogReader
}

// NewSeriesService constructs a SeriesService around the provided reader.
func NewSeriesService(store CatalogReader) *SeriesService {
	if store == nil {
		return nil
	}
	return &SeriesService{store: store}
}

// List returns catalog series filtered by status.
func (s *SeriesService) List(ctx context.Context, statuses ...catalog.Status) ([]Series, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	series, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromSeriesList(series), nil
}

// Stats returns catalog summary counts keyed by status string.
func (s *SeriesService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeCatalogStats(stats), nil
}

// Describe fetches a single series.
func (s *SeriesService) Describe(ctx context.Context, id int64) (*Series, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	series, err := s.store.GetByID(ctx, id)
	if err != nil || series == nil {
		return nil, err
	}
	dto := FromSeries(series)
	return &dto, nil
}
