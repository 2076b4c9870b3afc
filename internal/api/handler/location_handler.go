package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// LocationHandler cabins and public areas
type LocationHandler struct {
	locationSvc service.LocationService
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(locationSvc service.LocationService) *LocationHandler {
	return &LocationHandler{locationSvc: locationSvc}
}

// ListLocations
// GET /api/v1/locations
func (h *LocationHandler) ListLocations(c *gin.Context) {
	var req dto.LocationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	locations, err := h.locationSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}
	response.OK(c, gin.H{"list": locations})
}

// GetLocation
// GET /api/v1/locations/:id
func (h *LocationHandler) GetLocation(c *gin.Context) {
	location, err := h.locationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLocationError(c, err)
		return
	}
	response.OK(c, location)
}

// CreateLocation
// POST /api/v1/locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	location, err := h.locationSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}
	response.Created(c, location)
}

// UpdateLocation
// PUT /api/v1/locations/:id
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	location, err := h.locationSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}
	response.OK(c, location)
}

// SetDoNotDisturb
// PUT /api/v1/locations/:id/dnd
func (h *LocationHandler) SetDoNotDisturb(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.SetDoNotDisturbRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	location, err := h.locationSvc.SetDoNotDisturb(c.Request.Context(), c.Param("id"), *req.Enabled, actor)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}
	response.OK(c, location)
}

// DeleteLocation
// DELETE /api/v1/locations/:id
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	if err := h.locationSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleLocationError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *LocationHandler) handleLocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, 16001, "location not found")
	case errors.Is(err, service.ErrLocationNameTaken):
		response.Conflict(c, 16002, "location name already in use")
	case errors.Is(err, service.ErrButtonAlreadyMapped):
		response.Conflict(c, 16003, "smart button already mapped to another location")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
