package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// AssignmentHandler duty roster
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// ListAssignments
// GET /api/v1/assignments?from=2025-01-01&to=2025-01-07
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, err := h.assignmentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateAssignment
// POST /api/v1/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	a, err := h.assignmentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.Created(c, a)
}

// DeleteAssignment
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	if err := h.assignmentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, nil)
}

// Workload
// GET /api/v1/crew/:id/workload?from=&to=
func (h *AssignmentHandler) Workload(c *gin.Context) {
	w, err := h.assignmentSvc.Workload(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, w)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 18001, "assignment not found")
	case errors.Is(err, service.ErrCrewUnavailable):
		response.Conflict(c, 18002, "crew member is on leave")
	case errors.Is(err, service.ErrAlreadyAssigned):
		response.Conflict(c, 18003, "crew member already assigned on that date")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 17001, "shift not found")
	case errors.Is(err, service.ErrCrewNotFound):
		response.NotFound(c, 13001, "crew member not found")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
