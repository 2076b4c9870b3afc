package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// AuthHandler login / logout
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, 11001, "invalid username or password")
			return
		}
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout revokes the presented token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenFrom(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
