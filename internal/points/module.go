// Package points provides the collection point bounded context module.
package points

import (
	"ecoleta_backend/internal/adapters/storage"
	"ecoleta_backend/internal/events"
	apphttp "ecoleta_backend/internal/http"
	"ecoleta_backend/internal/points/handler"
	"ecoleta_backend/internal/points/repository"
	"ecoleta_backend/internal/points/service"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the points bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Params groups the dependencies of the points module.
type Params struct {
	Pool       *pgxpool.Pool
	Items      service.ItemReader
	Storage    storage.StorageService
	Bucket     string
	AppBaseURL string
	Validator  *validator.Validator
	Bus        events.Bus
	Log        *logger.Logger
}

// NewModule creates and initializes the points module.
func NewModule(p Params) *Module {
	svc := service.New(service.Deps{
		Repo:       repository.New(p.Pool),
		Items:      p.Items,
		Storage:    p.Storage,
		Bucket:     p.Bucket,
		AppBaseURL: p.AppBaseURL,
		Validator:  p.Validator,
		Bus:        p.Bus,
		Log:        p.Log,
	})
	return &Module{handler: handler.New(svc, p.Validator), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "points"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts points routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/points")
	if ctx.RegistrationRateLimiter != nil {
		group.POST("", ctx.RegistrationRateLimiter.RateLimit(), m.handler.CreatePoint)
	} else {
		group.POST("", m.handler.CreatePoint)
	}
	group.GET("", m.handler.ListPoints)
	group.GET("/:id", m.handler.GetPoint)
	group.POST("/:id/image", m.handler.UploadImage)
	group.GET("/:id/qrcode", m.handler.QRCode)
}

var _ apphttp.Module = (*Module)(nil)
