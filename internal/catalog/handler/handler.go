package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoleta_backend/internal/catalog/service"
	"ecoleta_backend/internal/catalog/transport"
	"ecoleta_backend/platform/httpkit"
	"ecoleta_backend/platform/validator"
)

// Handler handles HTTP requests for the item catalog.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgIconRequired     = "icon file is required"
)

// New creates a new catalog handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListItems returns all collectible item categories.
// GET /api/v1/items
func (h *Handler) ListItems(c *gin.Context) {
	result, err := h.svc.ListItems(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateItem adds a new item category with its icon.
// POST /api/v1/admin/items (multipart: title, icon)
func (h *Handler) CreateItem(c *gin.Context) {
	var req transport.CreateItemRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	fileHeader, err := c.FormFile("icon")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgIconRequired, nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgIconRequired, nil)
		return
	}
	defer file.Close()

	result, err := h.svc.CreateItem(c.Request.Context(), req, service.IconUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
