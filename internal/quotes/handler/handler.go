package handler

import (
	"net/http"

	"travelquote_backend/internal/quotes/service"
	"travelquote_backend/internal/quotes/transport"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/httpkit"
	"travelquote_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnknownTenant    = "unknown tenant"
)

type Handler struct {
	svc     *service.Service
	val     *validator.Validator
	tenants *tenant.Registry
}

func New(svc *service.Service, val *validator.Validator, tenants *tenant.Registry) *Handler {
	return &Handler{svc: svc, val: val, tenants: tenants}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate", h.Generate)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/resend", h.Resend)
	rg.POST("/:id/send", h.SendDraft)
	rg.GET("/:id/pdf-url", h.PDFDownloadURL)
}

func (h *Handler) Generate(c *gin.Context) {
	tn, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var req transport.GenerateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp := h.svc.GenerateQuote(c.Request.Context(), tn, req)
	httpkit.OK(c, resp)
}

func (h *Handler) List(c *gin.Context) {
	tn, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var req transport.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.ListQuotes(c.Request.Context(), tn.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	tn, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	quote, err := h.svc.GetQuote(c.Request.Context(), tn.ID, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, quote)
}

func (h *Handler) Resend(c *gin.Context) {
	tn, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	resp := h.svc.ResendQuote(c.Request.Context(), tn, c.Param("id"))
	httpkit.OK(c, resp)
}

func (h *Handler) SendDraft(c *gin.Context) {
	tn, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	resp := h.svc.SendDraftQuote(c.Request.Context(), tn, c.Param("id"))
	httpkit.OK(c, resp)
}

func (h *Handler) PDFDownloadURL(c *gin.Context) {
	tn, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	resp, err := h.svc.PresignPDF(c.Request.Context(), tn.ID, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// resolveTenant maps the authenticated tenant claim to its registry entry.
// Aborts the request when the token references a tenant we don't know.
func (h *Handler) resolveTenant(c *gin.Context) (*tenant.Tenant, bool) {
	tn, err := h.tenants.Get(httpkit.TenantID(c))
	if err != nil {
		httpkit.Error(c, http.StatusForbidden, msgUnknownTenant, nil)
		return nil, false
	}
	return tn, true
}
