package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// GuestHandler guests aboard
type GuestHandler struct {
	guestSvc service.GuestService
}

// NewGuestHandler creates a GuestHandler.
func NewGuestHandler(guestSvc service.GuestService) *GuestHandler {
	return &GuestHandler{guestSvc: guestSvc}
}

// ListGuests
// GET /api/v1/guests
func (h *GuestHandler) ListGuests(c *gin.Context) {
	var req dto.GuestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.guestSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleGuestError(c, err, nil)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetGuest
// GET /api/v1/guests/:id
func (h *GuestHandler) GetGuest(c *gin.Context) {
	guest, err := h.guestSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleGuestError(c, err, nil)
		return
	}
	response.OK(c, guest)
}

// CreateGuest
// POST /api/v1/guests
func (h *GuestHandler) CreateGuest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CreateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	guest, err := h.guestSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleGuestError(c, err, nil)
		return
	}
	response.Created(c, guest)
}

// UpdateGuest
// PUT /api/v1/guests/:id
func (h *GuestHandler) UpdateGuest(c *gin.Context) {
	var req dto.UpdateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	guest, err := h.guestSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleGuestError(c, err, nil)
		return
	}
	response.OK(c, guest)
}

// UpdateGuestStatus check-in, go-ashore, check-out
// PUT /api/v1/guests/:id/status
func (h *GuestHandler) UpdateGuestStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.GuestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	guest, err := h.guestSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actor)
	if err != nil {
		h.handleGuestError(c, err, guest)
		return
	}
	response.OK(c, guest)
}

// DeleteGuest
// DELETE /api/v1/guests/:id
func (h *GuestHandler) DeleteGuest(c *gin.Context) {
	if err := h.guestSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleGuestError(c, err, nil)
		return
	}
	response.OK(c, nil)
}

func (h *GuestHandler) handleGuestError(c *gin.Context, err error, current *dto.GuestResponse) {
	switch {
	case errors.Is(err, service.ErrGuestNotFound):
		response.NotFound(c, 19001, "guest not found")
	case errors.Is(err, service.ErrInvalidTransition):
		response.ErrorWithData(c, http.StatusConflict, 19002, "invalid guest status change", current)
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, 16001, "location not found")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
