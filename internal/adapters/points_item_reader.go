package adapters

import (
	"context"

	"github.com/google/uuid"

	catalogsvc "ecoleta_backend/internal/catalog/service"
	pointssvc "ecoleta_backend/internal/points/service"
	"ecoleta_backend/internal/points/transport"
)

// PointsItemReader adapts the catalog service for the points domain,
// satisfying pointssvc.ItemReader. Unknown IDs surface as the catalog's
// validation error.
type PointsItemReader struct {
	svc *catalogsvc.Service
}

// NewPointsItemReader creates a new item reader adapter.
func NewPointsItemReader(svc *catalogsvc.Service) *PointsItemReader {
	return &PointsItemReader{svc: svc}
}

// GetItemsByIDs resolves ids to the item summaries shown on a point.
func (a *PointsItemReader) GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]transport.PointItem, error) {
	if len(ids) == 0 {
		return []transport.PointItem{}, nil
	}
	items, err := a.svc.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PointItem, 0, len(items))
	for _, item := range items {
		out = append(out, transport.PointItem{ID: item.ID, Title: item.Title, ImageURL: item.ImageURL})
	}
	return out, nil
}

var _ pointssvc.ItemReader = (*PointsItemReader)(nil)
