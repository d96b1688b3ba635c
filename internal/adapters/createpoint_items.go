package adapters

import (
	"context"
	"fmt"

	catalogsvc "ecoleta_backend/internal/catalog/service"
	"ecoleta_backend/internal/createpoint/ports"
)

// CreatePointItemSource adapts the catalog service for the registration form,
// satisfying ports.ItemSource.
type CreatePointItemSource struct {
	svc *catalogsvc.Service
}

// NewCreatePointItemSource creates a new item source adapter.
func NewCreatePointItemSource(svc *catalogsvc.Service) *CreatePointItemSource {
	return &CreatePointItemSource{svc: svc}
}

// ListItems returns the catalog items in catalog order.
func (a *CreatePointItemSource) ListItems(ctx context.Context) ([]ports.Item, error) {
	items, err := a.svc.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: list items: %w", err)
	}
	out := make([]ports.Item, 0, len(items))
	for _, item := range items {
		out = append(out, ports.Item{ID: item.ID, Title: item.Title, ImageURL: item.ImageURL})
	}
	return out, nil
}

var _ ports.ItemSource = (*CreatePointItemSource)(nil)
