package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// DeviceHandler device registry
type DeviceHandler struct {
	deviceSvc service.DeviceService
}

// NewDeviceHandler creates a DeviceHandler.
func NewDeviceHandler(deviceSvc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// ListDevices
// GET /api/v1/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	var req dto.DeviceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, err := h.deviceSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetDevice
// GET /api/v1/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.deviceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}
	response.OK(c, device)
}

// RegisterDevice create or refresh by device key; 201 on create.
// POST /api/v1/devices
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	device, created, err := h.deviceSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}
	if created {
		response.Created(c, device)
		return
	}
	response.OK(c, device)
}

// BindCrew
// PUT /api/v1/devices/:id/crew
func (h *DeviceHandler) BindCrew(c *gin.Context) {
	var req dto.BindDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	device, err := h.deviceSvc.Bind(c.Request.Context(), c.Param("id"), req.CrewMemberID)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}
	response.OK(c, device)
}

// BindLocation
// PUT /api/v1/devices/:id/location
func (h *DeviceHandler) BindLocation(c *gin.Context) {
	var req dto.BindLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	device, err := h.deviceSvc.BindLocation(c.Request.Context(), c.Param("id"), req.LocationID)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}
	response.OK(c, device)
}

// Heartbeat for devices that report over HTTP instead of MQTT.
// POST /api/v1/devices/heartbeat
func (h *DeviceHandler) Heartbeat(c *gin.Context) {
	var req dto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	if err := h.deviceSvc.Heartbeat(c.Request.Context(), &req); err != nil {
		h.handleDeviceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListLogs
// GET /api/v1/devices/:id/logs?limit=100
func (h *DeviceHandler) ListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.deviceSvc.Logs(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}
	response.OK(c, gin.H{"list": logs})
}

// DeleteDevice
// DELETE /api/v1/devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if err := h.deviceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleDeviceError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *DeviceHandler) handleDeviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		response.NotFound(c, 14001, "device not found")
	case errors.Is(err, service.ErrCrewNotFound):
		response.NotFound(c, 13001, "crew member not found")
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, 16001, "location not found")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
