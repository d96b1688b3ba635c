// Package createpoint provides the collection point registration form: server
// side drafts that load items and regions, cascade municipality lookups and
// submit to the points context.
package createpoint

import (
	"context"
	"time"

	"ecoleta_backend/internal/createpoint/form"
	"ecoleta_backend/internal/createpoint/handler"
	"ecoleta_backend/internal/createpoint/ports"
	"ecoleta_backend/internal/createpoint/service"
	apphttp "ecoleta_backend/internal/http"
	"ecoleta_backend/platform/config"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"
)

const sweepInterval = time.Minute

// Module wires the draft routes and the expiry sweeper.
type Module struct {
	handler *handler.Handler
	service *service.Service
	store   *form.Store
	log     *logger.Logger
}

// Params groups the dependencies of the create-point module.
type Params struct {
	Items     ports.ItemSource
	Regions   ports.RegionSource
	Submitter ports.Submitter
	Map       config.MapConfig
	Drafts    config.DraftConfig
	Validator *validator.Validator
	Log       *logger.Logger
}

// NewModule creates the create-point module.
func NewModule(p Params) *Module {
	store := form.NewStore(p.Drafts.GetDraftTTL())
	svc := service.New(store, form.Deps{
		Items:     p.Items,
		Regions:   p.Regions,
		Submitter: p.Submitter,
		Map: form.MapView{
			Center:      form.Position{Lat: p.Map.GetMapCenterLat(), Lng: p.Map.GetMapCenterLng()},
			Zoom:        p.Map.GetMapZoom(),
			TileURL:     p.Map.GetMapTileURL(),
			Attribution: p.Map.GetMapAttribution(),
		},
	}, p.Log)

	return &Module{
		handler: handler.New(svc, p.Validator),
		service: svc,
		store:   store,
		log:     p.Log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "createpoint"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RunSweeper expires idle drafts until ctx is done, then closes the rest.
func (m *Module) RunSweeper(ctx context.Context) {
	m.store.Run(ctx, sweepInterval, func(removed int) {
		m.log.Info("expired drafts removed", "count", removed)
	})
}

// RegisterRoutes mounts the draft routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/create-point/drafts")
	group.POST("", m.handler.Open)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id/fields", m.handler.UpdateFields)
	group.PUT("/:id/region", m.handler.SelectRegion)
	group.PUT("/:id/municipality", m.handler.SelectMunicipality)
	group.PUT("/:id/position", m.handler.SetPosition)
	group.POST("/:id/items/:itemId/toggle", m.handler.ToggleItem)
	group.POST("/:id/submit", m.handler.Submit)
	group.DELETE("/:id", m.handler.Discard)
}

var _ apphttp.Module = (*Module)(nil)
