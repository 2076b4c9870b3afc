package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// CrewHandler crew directory
type CrewHandler struct {
	crewSvc service.CrewService
}

// NewCrewHandler creates a CrewHandler.
func NewCrewHandler(crewSvc service.CrewService) *CrewHandler {
	return &CrewHandler{crewSvc: crewSvc}
}

// ListCrew
// GET /api/v1/crew
func (h *CrewHandler) ListCrew(c *gin.Context) {
	var req dto.CrewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, err := h.crewSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleCrewError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetCrew
// GET /api/v1/crew/:id
func (h *CrewHandler) GetCrew(c *gin.Context) {
	crew, err := h.crewSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCrewError(c, err)
		return
	}
	response.OK(c, crew)
}

// CreateCrew
// POST /api/v1/crew
func (h *CrewHandler) CreateCrew(c *gin.Context) {
	var req dto.CreateCrewMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	crew, err := h.crewSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleCrewError(c, err)
		return
	}
	response.Created(c, crew)
}

// UpdateCrew
// PUT /api/v1/crew/:id
func (h *CrewHandler) UpdateCrew(c *gin.Context) {
	var req dto.UpdateCrewMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	crew, err := h.crewSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleCrewError(c, err)
		return
	}
	response.OK(c, crew)
}

// SetDutyStatus
// PUT /api/v1/crew/:id/status
func (h *CrewHandler) SetDutyStatus(c *gin.Context) {
	var req dto.SetDutyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	crew, err := h.crewSvc.SetDutyStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.handleCrewError(c, err)
		return
	}
	response.OK(c, crew)
}

// DeleteCrew
// DELETE /api/v1/crew/:id
func (h *CrewHandler) DeleteCrew(c *gin.Context) {
	if err := h.crewSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCrewError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *CrewHandler) handleCrewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCrewNotFound):
		response.NotFound(c, 13001, "crew member not found")
	case errors.Is(err, service.ErrCrewConflict):
		response.Conflict(c, 13002, "crew member was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrCrewHasActiveRequests):
		response.Conflict(c, 13003, "crew member still has active service requests")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
