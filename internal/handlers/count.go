package handlers

import (
	"strconv"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/services"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// CountHandler exposes the public counting surface: submissions, the store
// status probe and the reference lists.
type CountHandler struct {
	counts *services.CountService
}

func NewCountHandler(counts *services.CountService) *CountHandler {
	return &CountHandler{counts: counts}
}

func (h *CountHandler) Submit(c *gin.Context) {
	var req services.SubmitCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	result, err := h.counts.SubmitCount(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *CountHandler) SubmitTransit(c *gin.Context) {
	var req services.SubmitCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	result, err := h.counts.SubmitTransitCount(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *CountHandler) StoreStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, response.NewInvalidInput("invalid store id"))
		return
	}

	status, svcErr := h.counts.GetStoreStatus(uint(id))
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.Success(c, status)
}

func (h *CountHandler) ListStores(c *gin.Context) {
	stores, err := h.counts.ListStores()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stores)
}

func (h *CountHandler) ListAssets(c *gin.Context) {
	assets, err := h.counts.ListAssets()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, assets)
}
