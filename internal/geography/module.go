// Package geography provides the IBGE region and municipality lookups.
package geography

import (
	"ecoleta_backend/internal/geography/client"
	"ecoleta_backend/internal/geography/handler"
	"ecoleta_backend/internal/geography/service"
	apphttp "ecoleta_backend/internal/http"
	"ecoleta_backend/platform/config"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"
)

// Module wires the geography HTTP routes.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the geography module. cache may be nil.
func NewModule(cfg config.GeographyConfig, cache service.Cache, val *validator.Validator, log *logger.Logger) *Module {
	timeout := cfg.GetGeographyTimeout()
	opts := []service.Option{
		service.WithUpstreamTimeout(timeout),
		service.WithReverseGeocoder(client.NewNominatim(cfg.GetNominatimBaseURL(), timeout, log)),
	}
	if cache != nil {
		opts = append(opts, service.WithCache(cache, cfg.GetGeographyCacheTTL()))
	}

	svc := service.New(client.NewIBGE(cfg.GetIBGEBaseURL(), timeout, log), log, opts...)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "geography"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts geography routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/geography")
	group.GET("/regions", m.handler.ListRegions)
	group.GET("/regions/:code/municipalities", m.handler.ListMunicipalities)
	group.GET("/reverse", m.handler.Reverse)
}

var _ apphttp.Module = (*Module)(nil)
