package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// ShiftHandler shift definitions
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler creates a ShiftHandler.
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// ListShifts
// GET /api/v1/shifts
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, err := h.shiftSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetShift
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	shift, err := h.shiftSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, shift)
}

// CreateShift
// POST /api/v1/shifts
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.Created(c, shift)
}

// UpdateShift
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, shift)
}

// ToggleShift
// PUT /api/v1/shifts/:id/toggle
func (h *ShiftHandler) ToggleShift(c *gin.Context) {
	shift, err := h.shiftSvc.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, shift)
}

// ReorderShifts
// PUT /api/v1/shifts/reorder
func (h *ShiftHandler) ReorderShifts(c *gin.Context) {
	var req dto.ReorderShiftsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	if err := h.shiftSvc.Reorder(c.Request.Context(), req.IDs); err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, nil)
}

// DeleteShift
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	if err := h.shiftSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 17001, "shift not found")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
