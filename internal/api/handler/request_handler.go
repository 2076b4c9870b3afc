package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/api/middleware"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// RequestHandler service request lifecycle
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler creates a RequestHandler.
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Trigger inbound button trigger. 201 when a request is created, 200 when
// the trigger folded into a still-pending request from the same button, 202
// when it folded into one that is still being created.
// POST /api/v1/service-requests/trigger
func (h *RequestHandler) Trigger(c *gin.Context) {
	var req dto.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	sr, err := h.requestSvc.Create(c.Request.Context(), &req)
	if errors.Is(err, service.ErrDuplicateTrigger) {
		response.Accepted(c, dto.InFlightTriggerResponse{ButtonKey: req.ButtonID, Coalesced: true, InFlight: true})
		return
	}
	if err != nil {
		h.handleRequestError(c, err, nil)
		return
	}
	if sr.Coalesced {
		response.OK(c, sr)
		return
	}
	response.Created(c, sr)
}

// ListActive pending and accepted requests, most urgent first.
// GET /api/v1/service-requests/active
func (h *RequestHandler) ListActive(c *gin.Context) {
	list, err := h.requestSvc.ListActive(c.Request.Context())
	if err != nil {
		h.handleRequestError(c, err, nil)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ListRequests
// GET /api/v1/service-requests
func (h *RequestHandler) ListRequests(c *gin.Context) {
	var req dto.ServiceRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.requestSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleRequestError(c, err, nil)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetRequest
// GET /api/v1/service-requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	sr, err := h.requestSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRequestError(c, err, nil)
		return
	}
	response.OK(c, sr)
}

// UpdateStatus the acting crew member is taken from the token.
// PUT /api/v1/service-requests/:id/status
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	var crewID string
	if req.Status == string(model.StatusAccepted) {
		id, ok := MustGetCrewMemberID(c)
		if !ok {
			return
		}
		crewID = id
	} else {
		if _, ok := MustGetUserID(c); !ok {
			return
		}
		crewID = c.GetString(middleware.CtxCrewMemberID)
	}

	sr, err := h.requestSvc.Transition(c.Request.Context(), c.Param("id"), req.Status, crewID)
	if err != nil {
		h.handleRequestError(c, err, sr)
		return
	}
	response.OK(c, sr)
}

// Delegate hands an accepted request to another crew member.
// PUT /api/v1/service-requests/:id/delegate
func (h *RequestHandler) Delegate(c *gin.Context) {
	var req dto.DelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	sr, err := h.requestSvc.Delegate(c.Request.Context(), c.Param("id"), req.CrewMemberID)
	if err != nil {
		h.handleRequestError(c, err, sr)
		return
	}
	response.OK(c, sr)
}

// PurgeActive removes every pending and accepted request (admin only).
// DELETE /api/v1/service-requests/active
func (h *RequestHandler) PurgeActive(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	n, err := h.requestSvc.PurgeActive(c.Request.Context(), actor)
	if err != nil {
		h.handleRequestError(c, err, nil)
		return
	}
	response.OK(c, dto.PurgeResponse{Deleted: n})
}

// History completed and cancelled requests.
// GET /api/v1/service-requests/history
func (h *RequestHandler) History(c *gin.Context) {
	var req dto.HistoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.requestSvc.History(c.Request.Context(), &req)
	if err != nil {
		h.handleRequestError(c, err, nil)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleRequestError current carries the unchanged request after a rejected transition.
func (h *RequestHandler) handleRequestError(c *gin.Context, err error, current *dto.ServiceRequestResponse) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 15001, "service request not found")
	case errors.Is(err, service.ErrInvalidTransition):
		response.ErrorWithData(c, http.StatusConflict, 15002, err.Error(), current)
	case errors.Is(err, service.ErrRequestConflict):
		response.Conflict(c, 15003, "service request was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrDuplicateTrigger):
		response.Conflict(c, 15004, "trigger already being processed")
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
