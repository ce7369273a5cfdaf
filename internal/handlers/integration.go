package handlers

import (
	"strconv"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/middleware"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/services"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// IntegrationHandler exposes the token lifecycle (admin) and the token-gated
// read-only export.
type IntegrationHandler struct {
	integration *services.IntegrationService
	adminSecret string
}

func NewIntegrationHandler(integration *services.IntegrationService, adminSecret string) *IntegrationHandler {
	return &IntegrationHandler{integration: integration, adminSecret: adminSecret}
}

func (h *IntegrationHandler) GetConfig(c *gin.Context) {
	cfg, err := h.integration.GetConfig()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}

type setEnabledRequest struct {
	Enabled    *bool  `json:"enabled"`
	Credential string `json:"credential"`
}

func (h *IntegrationHandler) SetEnabled(c *gin.Context) {
	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}
	if req.Enabled == nil {
		response.Error(c, response.NewInvalidInput("enabled is required"))
		return
	}

	if err := middleware.VerifyAdmin(c, h.adminSecret, req.Credential); err != nil {
		response.Error(c, err)
		return
	}

	cfg, err := h.integration.SetEnabled(*req.Enabled)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}

type rotateTokenRequest struct {
	Credential string `json:"credential"`
}

func (h *IntegrationHandler) RotateToken(c *gin.Context) {
	var req rotateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	if err := middleware.VerifyAdmin(c, h.adminSecret, req.Credential); err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.integration.RotateToken()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, token)
}

// Export serves the filtered read-only count export. Bearer token only; this
// is the single surface not gated by the admin secret.
func (h *IntegrationHandler) Export(c *gin.Context) {
	filter := &services.CountFilter{}
	if v := c.Query("store_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.Error(c, response.NewInvalidInput("invalid store_id filter"))
			return
		}
		filter.StoreID = uint(id)
	}
	if v := c.Query("asset_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.Error(c, response.NewInvalidInput("invalid asset_id filter"))
			return
		}
		filter.AssetID = uint(id)
	}
	if v := c.Query("since"); v != "" {
		since, err := parseSince(v)
		if err != nil {
			response.Error(c, response.NewInvalidInput("since must be RFC3339 or 2006-01-02"))
			return
		}
		filter.Since = &since
	}

	records, err := h.integration.ValidateAndExport(
		middleware.BearerToken(c),
		filter,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(records), "records": records})
}

func (h *IntegrationHandler) AccessLogs(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	logs, err := h.integration.ListAccessLogs(limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}

func parseSince(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
