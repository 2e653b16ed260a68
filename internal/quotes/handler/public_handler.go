package handler

import (
	"net/http"

	"agency_backend/internal/quotes/service"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the request funnel and the client link. None of its
// routes require authentication; the link token is the only credential.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates a new public quotes handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers the public routes on the /public group.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.Catalog)
	rg.POST("/quote-requests", h.SubmitRequest)
	rg.POST("/quote-requests/preview", h.Preview)

	quotes := rg.Group("/quotes/:token")
	quotes.Use(noStore())
	quotes.GET("", h.View)
	quotes.POST("/accept", h.Accept)
	quotes.POST("/refuse", h.Refuse)
	quotes.GET("/content", h.GetContent)
	quotes.PUT("/content", h.SaveContent)
}

// noStore keeps pages reached through a secret link out of shared caches.
func noStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

func (h *PublicHandler) Catalog(c *gin.Context) {
	httpkit.OK(c, h.svc.Catalog())
}

func (h *PublicHandler) SubmitRequest(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.SubmitRequest(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *PublicHandler) Preview(c *gin.Context) {
	var req transport.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.Preview(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) View(c *gin.Context) {
	result, err := h.svc.View(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) Accept(c *gin.Context) {
	result, err := h.svc.ClientAccept(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) Refuse(c *gin.Context) {
	var req transport.ClientRefuseRequest
	// The comment is optional, so is the body.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.InvalidRequest(c)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.ClientRefuse(c.Request.Context(), c.Param("token"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) GetContent(c *gin.Context) {
	result, err := h.svc.GetContent(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) SaveContent(c *gin.Context) {
	var req transport.SaveContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	result, err := h.svc.SaveContent(c.Request.Context(), c.Param("token"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
