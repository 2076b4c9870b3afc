package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	maxRequestIDLen = 64
)

// RequestID propagates X-Request-ID from gateways, generating one when the
// header is missing or oversized.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom the id assigned by RequestID, empty outside it.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// BodyLimit rejects bodies above maxBytes with 413. Non-positive disables it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
