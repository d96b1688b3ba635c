package adapters

import (
	"context"

	"ecoleta_backend/internal/createpoint/ports"
	geosvc "ecoleta_backend/internal/geography/service"
)

// CreatePointRegionSource adapts the geography service for the registration
// form, satisfying ports.RegionSource. Lookups share the geography cache.
type CreatePointRegionSource struct {
	svc *geosvc.Service
}

// NewCreatePointRegionSource creates a new region source adapter.
func NewCreatePointRegionSource(svc *geosvc.Service) *CreatePointRegionSource {
	return &CreatePointRegionSource{svc: svc}
}

// ListRegions returns the UF codes.
func (a *CreatePointRegionSource) ListRegions(ctx context.Context) ([]string, error) {
	return a.svc.ListRegions(ctx)
}

// ListMunicipalities returns every municipality name of code.
func (a *CreatePointRegionSource) ListMunicipalities(ctx context.Context, code string) ([]string, error) {
	return a.svc.ListMunicipalities(ctx, code, "")
}

var _ ports.RegionSource = (*CreatePointRegionSource)(nil)
