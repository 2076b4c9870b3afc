package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/api/middleware"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// MustGetUserID extracts user_id set by JWTAuth. On false a 401 has been
// written and the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetRole extracts role set by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxRole)
	if s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetCrewMemberID the crew profile linked to the caller's account.
// Accounts without a profile get 403: they cannot act as crew.
func MustGetCrewMemberID(c *gin.Context) (string, bool) {
	if _, ok := MustGetUserID(c); !ok {
		return "", false
	}
	s := c.GetString(middleware.CtxCrewMemberID)
	if s == "" {
		response.Forbidden(c, 10003, "account is not linked to a crew member")
		return "", false
	}
	return s, true
}

// actorFrom builds the service actor from the JWT context.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:       uid,
		Role:         model.Role(role),
		CrewMemberID: c.GetString(middleware.CtxCrewMemberID),
	}, true
}

func tokenFrom(c *gin.Context) (string, time.Time) {
	return c.GetString(middleware.CtxTokenID), c.GetTime(middleware.CtxTokenExpiry)
}

// handleCommonError maps the cross-module errors. Reports whether it wrote a response.
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "operation requires elevated privileges")
	case errors.Is(err, service.ErrPersistence):
		response.ServiceUnavailable(c, 50300, "store temporarily unavailable, retry")
	default:
		return false
	}
	return true
}
