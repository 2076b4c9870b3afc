package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// ActivityHandler activity journal
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// ListActivity newest first
// GET /api/v1/activity-logs
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
