package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// chattyPaths succeed many times a minute and are logged at debug.
var chattyPaths = []string{"/health", "/api/v1/devices/heartbeat"}

// Logger writes one structured line per request.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := accessLevel(c.Request.URL.Path, status)
		if ce := logger.Check(level, "http request"); ce != nil {
			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", RequestIDFrom(c)),
			}
			if uid := c.GetString(CtxUserID); uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}
			if c.GetBool(CtxDevice) {
				fields = append(fields, zap.Bool("gateway", true))
			}
			if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
				fields = append(fields, zap.String("errors", errs.String()))
			}
			ce.Write(fields...)
		}
	}
}

func accessLevel(path string, status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	}
	for _, p := range chattyPaths {
		if strings.HasPrefix(path, p) {
			return zapcore.DebugLevel
		}
	}
	return zapcore.InfoLevel
}
