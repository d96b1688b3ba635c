package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecoleta_backend/internal/createpoint/form"
	"ecoleta_backend/internal/createpoint/service"
	"ecoleta_backend/internal/createpoint/transport"
	"ecoleta_backend/platform/httpkit"
	"ecoleta_backend/platform/validator"
)

// Handler exposes registration drafts over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDraftID   = "invalid draft id"
)

// New creates a draft handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Open handles POST /drafts
func (h *Handler) Open(c *gin.Context) {
	view, err := h.svc.Open(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, view)
}

// Get handles GET /drafts/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	view, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// UpdateFields handles PUT /drafts/:id/fields
func (h *Handler) UpdateFields(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req transport.FieldsRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.svc.UpdateFields(c.Request.Context(), id, form.FieldsUpdate{
		Name:     req.Name,
		Email:    req.Email,
		WhatsApp: req.WhatsApp,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// SelectRegion handles PUT /drafts/:id/region
func (h *Handler) SelectRegion(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req transport.RegionRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.svc.SelectRegion(c.Request.Context(), id, req.Code)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// SelectMunicipality handles PUT /drafts/:id/municipality
func (h *Handler) SelectMunicipality(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req transport.MunicipalityRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.svc.SelectMunicipality(c.Request.Context(), id, req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// SetPosition handles PUT /drafts/:id/position
func (h *Handler) SetPosition(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req transport.PositionRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.svc.SetPosition(c.Request.Context(), id, form.Position{Lat: *req.Lat, Lng: *req.Lng})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// ToggleItem handles POST /drafts/:id/items/:itemId/toggle
func (h *Handler) ToggleItem(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}

	view, err := h.svc.ToggleItem(c.Request.Context(), id, c.Param("itemId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// Submit handles POST /drafts/:id/submit
func (h *Handler) Submit(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Discard handles DELETE /drafts/:id
func (h *Handler) Discard(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Discard(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseDraftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDraftID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
