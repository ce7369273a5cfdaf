package handlers

import (
	"strconv"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/config"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/middleware"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/services"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/utils"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the review panel operations: record edits, bulk
// cleanup and admin session tokens.
type AdminHandler struct {
	counts *services.CountService
	cfg    *config.Config
}

func NewAdminHandler(counts *services.CountService, cfg *config.Config) *AdminHandler {
	return &AdminHandler{counts: counts, cfg: cfg}
}

type sessionRequest struct {
	Credential string `json:"credential"`
}

// CreateSession exchanges the shared admin secret for a short-lived session
// token, so the panel does not have to resend the secret on every call.
func (h *AdminHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	if h.cfg.Admin.Secret == "" {
		response.Error(c, response.NewConfigurationError("admin secret is not configured"))
		return
	}
	if !utils.VerifyAdminSecret(h.cfg.Admin.Secret, req.Credential) {
		response.Error(c, response.NewUnauthorized("invalid admin credential"))
		return
	}
	if h.cfg.JWT.Secret == "" {
		response.Error(c, response.NewConfigurationError("jwt secret is not configured"))
		return
	}

	token, err := utils.GenerateSessionToken("admin", h.cfg.JWT.ExpireHour)
	if err != nil {
		response.Error(c, response.NewConfigurationError("failed to issue session token"))
		return
	}
	response.Success(c, gin.H{"token": token, "expire_hours": h.cfg.JWT.ExpireHour})
}

// kindFromRoute maps the optional /transit suffix handled by the router.
func kindFromQuery(c *gin.Context) string {
	if c.GetBool("transit") {
		return services.KindTransit
	}
	return services.KindStore
}

// TransitFlag marks a route as operating on transit records.
func TransitFlag() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("transit", true)
		c.Next()
	}
}

func (h *AdminHandler) ListCounts(c *gin.Context) {
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

	records, err := h.counts.ListCounts(kindFromQuery(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

type updateQuantityRequest struct {
	Quantity   *int   `json:"quantity"`
	Credential string `json:"credential"`
}

func (h *AdminHandler) UpdateCount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, response.NewInvalidInput("invalid record id"))
		return
	}

	var req updateQuantityRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+bindErr.Error()))
		return
	}
	if req.Quantity == nil {
		response.Error(c, response.NewInvalidInput("quantity is required"))
		return
	}

	if authErr := middleware.VerifyAdmin(c, h.cfg.Admin.Secret, req.Credential); authErr != nil {
		response.Error(c, authErr)
		return
	}

	if svcErr := h.counts.UpdateQuantity(kindFromQuery(c), uint(id), *req.Quantity); svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.Success(c, gin.H{"id": id, "quantity": *req.Quantity})
}

func (h *AdminHandler) DeleteCount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, response.NewInvalidInput("invalid record id"))
		return
	}

	if svcErr := h.counts.DeleteRecord(kindFromQuery(c), uint(id)); svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.Success(c, gin.H{"id": id, "deleted": true})
}

type cleanupRequest struct {
	CleanupType string `json:"cleanup_type"`
	StoreID     uint   `json:"store_id"`
	Credential  string `json:"credential"`
}

func (h *AdminHandler) Cleanup(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	if err := middleware.VerifyAdmin(c, h.cfg.Admin.Secret, req.Credential); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.counts.Cleanup(req.CleanupType, req.StoreID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
