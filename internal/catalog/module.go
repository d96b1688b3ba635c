// Package catalog provides the item catalog bounded context module.
package catalog

import (
	"context"

	"ecoleta_backend/internal/adapters/storage"
	"ecoleta_backend/internal/catalog/handler"
	"ecoleta_backend/internal/catalog/repository"
	"ecoleta_backend/internal/catalog/service"
	"ecoleta_backend/internal/events"
	apphttp "ecoleta_backend/internal/http"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, bucket string, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, storageSvc, bucket, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// SeedDefaults inserts the default item categories that are missing.
func (m *Module) SeedDefaults(ctx context.Context) error {
	return m.service.SeedDefaults(ctx)
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/items", m.handler.ListItems)
	ctx.Admin.POST("/items", m.handler.CreateItem)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
