package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoleta_backend/internal/geography/service"
	"ecoleta_backend/internal/geography/transport"
	"ecoleta_backend/platform/httpkit"
	"ecoleta_backend/platform/validator"
)

// Handler exposes the geography lookups.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a geography handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListRegions handles GET /api/v1/geography/regions
func (h *Handler) ListRegions(c *gin.Context) {
	result, err := h.svc.ListRegions(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListMunicipalities handles GET /api/v1/geography/regions/:code/municipalities?q=
func (h *Handler) ListMunicipalities(c *gin.Context) {
	param := transport.RegionParam{Code: c.Param("code")}
	if err := h.val.Struct(param); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	var query transport.MunicipalitiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.ListMunicipalities(c.Request.Context(), param.Code, query.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reverse handles GET /api/v1/geography/reverse?lat=&lng=
func (h *Handler) Reverse(c *gin.Context) {
	var query transport.ReverseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Reverse(c.Request.Context(), *query.Lat, *query.Lng)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
