package handlers

import (
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/middleware"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/services"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// SystemHandler exposes the availability state machine.
type SystemHandler struct {
	availability *services.AvailabilityService
	adminSecret  string
	loc          *time.Location
}

func NewSystemHandler(availability *services.AvailabilityService, adminSecret string, loc *time.Location) *SystemHandler {
	return &SystemHandler{availability: availability, adminSecret: adminSecret, loc: loc}
}

func (h *SystemHandler) GetStatus(c *gin.Context) {
	status, err := h.availability.GetStatus()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

type setManualRequest struct {
	Blocked    *bool  `json:"blocked"`
	Credential string `json:"credential"`
}

func (h *SystemHandler) SetManual(c *gin.Context) {
	var req setManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}
	if req.Blocked == nil {
		response.Error(c, response.NewInvalidInput("blocked is required"))
		return
	}

	if err := middleware.VerifyAdmin(c, h.adminSecret, req.Credential); err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.availability.SetManual(*req.Blocked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

type setScheduleRequest struct {
	services.SetScheduleRequest
	Credential string `json:"credential"`
}

func (h *SystemHandler) SetSchedule(c *gin.Context) {
	var req setScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	if err := middleware.VerifyAdmin(c, h.adminSecret, req.Credential); err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.availability.SetSchedule(&req.SetScheduleRequest)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// Reconcile recomputes the blocked flag from the schedule. Idempotent; kept
// public so external monitors can trigger a refresh between cron passes.
func (h *SystemHandler) Reconcile(c *gin.Context) {
	changed, err := h.availability.Reconcile(time.Now().In(h.loc))
	if err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.availability.GetStatus()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"changed": changed, "status": status})
}
