package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/jwt"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxCrewMemberID = "crew_member_id"
	CtxTokenID      = "token_id"
	CtxTokenExpiry  = "token_expiry"
	CtxDevice       = "device_caller"
)

// TriggerTokenHeader carries the shared secret of button gateways.
const TriggerTokenHeader = "X-Trigger-Token"

// Blacklist revoked token lookup; nil skips the check.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the Bearer access token and injects the caller identity.
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, jwtMgr, blacklist) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// TriggerAuth accepts either the gateway trigger token or a user JWT.
// An empty configured token disables the gateway path.
func TriggerAuth(triggerToken string, jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if presented := c.GetHeader(TriggerTokenHeader); presented != "" {
			if triggerToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(triggerToken)) != 1 {
				response.Unauthorized(c, 10002, "invalid trigger token")
				c.Abort()
				return
			}
			c.Set(CtxDevice, true)
			c.Next()
			return
		}

		if !authenticate(c, jwtMgr, blacklist) {
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtMgr *jwt.Manager, blacklist Blacklist) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, 10002, "missing authorization header")
		return false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(c, 10002, "malformed authorization header")
		return false
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		response.Unauthorized(c, 10002, "token invalid or expired")
		return false
	}
	if !claims.IsAccess() {
		response.Unauthorized(c, 10002, "wrong token type")
		return false
	}

	if blacklist != nil && claims.ID != "" {
		revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
		// a Redis outage lets the token through
		if err == nil && revoked {
			response.Unauthorized(c, 10002, "token revoked")
			return false
		}
	}

	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxCrewMemberID, claims.CrewMemberID)
	c.Set(CtxTokenID, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExpiry, claims.ExpiresAt.Time)
	}
	return true
}

// RoleAuth requires one of the given roles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxRole)
		if !exists {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "insufficient role")
		c.Abort()
	}
}
