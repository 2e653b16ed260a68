package handler

import (
	"net/http"

	"agency_backend/internal/quotes/service"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles the admin console requests for quotes.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the quote routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", h.Act)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/token", h.RegenerateToken)
	rg.POST("/:id/payment", h.RecordPayment)
	rg.GET("/:id/qrcode", h.QRCode)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	result, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Act applies a lifecycle action. A notification that could not be sent is
// reported in warnings with a 200: the action itself was applied.
func (h *Handler) Act(c *gin.Context) {
	var req transport.QuoteActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.Act(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	if req.Action == "duplicate" {
		httpkit.JSON(c, http.StatusCreated, result)
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	var req transport.DeleteQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), c.Param("id"), req.Version)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RegenerateToken(c *gin.Context) {
	result, err := h.svc.RegenerateToken(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req transport.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) QRCode(c *gin.Context) {
	png, err := h.svc.QRCode(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
