package handlers

import (
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/middleware"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/services"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// WebhookConfigHandler manages the outbound webhook target (admin).
type WebhookConfigHandler struct {
	webhook     *services.WebhookService
	adminSecret string
}

func NewWebhookConfigHandler(webhook *services.WebhookService, adminSecret string) *WebhookConfigHandler {
	return &WebhookConfigHandler{webhook: webhook, adminSecret: adminSecret}
}

func (h *WebhookConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.webhook.GetConfig()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}

type updateWebhookRequest struct {
	services.UpdateWebhookRequest
	Credential string `json:"credential"`
}

func (h *WebhookConfigHandler) UpdateConfig(c *gin.Context) {
	var req updateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	if err := middleware.VerifyAdmin(c, h.adminSecret, req.Credential); err != nil {
		response.Error(c, err)
		return
	}

	cfg, err := h.webhook.UpdateConfig(&req.UpdateWebhookRequest)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}
