package handler

import (
	"agency_backend/internal/affiliates/service"
	"agency_backend/internal/affiliates/transport"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for affiliates.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new affiliates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the admin affiliate routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PUT("/:code", h.Upsert)
}

// RegisterPublicRoutes registers the funnel lookup.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/:code", h.PublicLookup)
}

func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Upsert(c *gin.Context) {
	var req transport.UpsertAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.Upsert(c.Request.Context(), c.Param("code"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) PublicLookup(c *gin.Context) {
	result, err := h.svc.PublicLookup(c.Request.Context(), c.Param("code"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
