package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/api/handler"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/api/middleware"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/jwt"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/redis"
)

// Checker a dependency probed by /health.
type Checker interface {
	Ping(ctx context.Context) error
}

const (
	triggerRateLimit  = 60
	loginRateLimit    = 10
	rateLimitWindow   = time.Minute
	healthCheckBudget = 2 * time.Second
)

// Setup builds the gin engine. rdb may be nil; checks are probed by /health.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, checks map[string]Checker, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// a nil *redis.Client must not become a non-nil interface
	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	r.GET("/health", healthHandler(checks))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", middleware.RateLimit(limiter, loginRateLimit, rateLimitWindow, middleware.ByClientIP), h.Auth.Login)

		// buttons and gateways: trigger token or user JWT
		v1.POST("/service-requests/trigger",
			middleware.TriggerAuth(cfg.Server.TriggerToken, jwtMgr, blacklist),
			middleware.RateLimit(limiter, triggerRateLimit, rateLimitWindow, middleware.ByCaller),
			h.Request.Trigger,
		)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.PUT("/me/password", h.User.ChangePassword)
				users.GET("", middleware.RoleAuth("admin"), h.User.ListUsers)
				users.POST("", middleware.RoleAuth("admin"), h.User.CreateUser)
			}

			requests := authorized.Group("/service-requests")
			{
				requests.GET("", h.Request.ListRequests)
				requests.GET("/active", h.Request.ListActive)
				requests.GET("/history", h.Request.History)
				requests.GET("/:id", h.Request.GetRequest)
				requests.PUT("/:id/status", h.Request.UpdateStatus)
				requests.PUT("/:id/delegate", middleware.RoleAuth("admin", "chief"), h.Request.Delegate)
				// role is checked again in the service
				requests.DELETE("/active", h.Request.PurgeActive)
			}

			crew := authorized.Group("/crew")
			{
				crew.GET("", h.Crew.ListCrew)
				crew.GET("/:id", h.Crew.GetCrew)
				crew.GET("/:id/workload", h.Assignment.Workload)
				crew.POST("", middleware.RoleAuth("admin", "chief"), h.Crew.CreateCrew)
				crew.PUT("/:id", middleware.RoleAuth("admin", "chief"), h.Crew.UpdateCrew)
				crew.PUT("/:id/status", middleware.RoleAuth("admin", "chief"), h.Crew.SetDutyStatus)
				crew.DELETE("/:id", middleware.RoleAuth("admin"), h.Crew.DeleteCrew)
			}

			devices := authorized.Group("/devices")
			{
				devices.GET("", h.Device.ListDevices)
				devices.GET("/:id", h.Device.GetDevice)
				devices.GET("/:id/logs", h.Device.ListLogs)
				devices.POST("", middleware.RoleAuth("admin", "chief"), h.Device.RegisterDevice)
				devices.POST("/heartbeat", h.Device.Heartbeat)
				devices.PUT("/:id/crew", middleware.RoleAuth("admin", "chief"), h.Device.BindCrew)
				devices.PUT("/:id/location", middleware.RoleAuth("admin", "chief"), h.Device.BindLocation)
				devices.DELETE("/:id", middleware.RoleAuth("admin"), h.Device.DeleteDevice)
			}

			locations := authorized.Group("/locations")
			{
				locations.GET("", h.Location.ListLocations)
				locations.GET("/:id", h.Location.GetLocation)
				locations.POST("", middleware.RoleAuth("admin"), h.Location.CreateLocation)
				locations.PUT("/:id", middleware.RoleAuth("admin"), h.Location.UpdateLocation)
				locations.PUT("/:id/dnd", h.Location.SetDoNotDisturb)
				locations.DELETE("/:id", middleware.RoleAuth("admin"), h.Location.DeleteLocation)
			}

			guests := authorized.Group("/guests")
			{
				guests.GET("", h.Guest.ListGuests)
				guests.GET("/:id", h.Guest.GetGuest)
				guests.POST("", middleware.RoleAuth("admin", "chief"), h.Guest.CreateGuest)
				guests.PUT("/:id", middleware.RoleAuth("admin", "chief"), h.Guest.UpdateGuest)
				guests.PUT("/:id/status", middleware.RoleAuth("admin", "chief"), h.Guest.UpdateGuestStatus)
				guests.DELETE("/:id", middleware.RoleAuth("admin"), h.Guest.DeleteGuest)
			}

			authorized.GET("/activity-logs", middleware.RoleAuth("admin", "chief"), h.Activity.ListActivity)

			shifts := authorized.Group("/shifts")
			{
				shifts.GET("", h.Shift.ListShifts)
				shifts.GET("/:id", h.Shift.GetShift)
				shifts.POST("", middleware.RoleAuth("admin", "chief"), h.Shift.CreateShift)
				shifts.PUT("/reorder", middleware.RoleAuth("admin", "chief"), h.Shift.ReorderShifts)
				shifts.PUT("/:id", middleware.RoleAuth("admin", "chief"), h.Shift.UpdateShift)
				shifts.PUT("/:id/toggle", middleware.RoleAuth("admin", "chief"), h.Shift.ToggleShift)
				shifts.DELETE("/:id", middleware.RoleAuth("admin"), h.Shift.DeleteShift)
			}

			assignments := authorized.Group("/assignments")
			{
				assignments.GET("", h.Assignment.ListAssignments)
				assignments.POST("", middleware.RoleAuth("admin", "chief"), h.Assignment.CreateAssignment)
				assignments.DELETE("/:id", middleware.RoleAuth("admin", "chief"), h.Assignment.DeleteAssignment)
			}

			export := authorized.Group("/export")
			{
				export.GET("/history", middleware.RoleAuth("admin", "chief"), h.Export.ExportHistory)
				export.GET("/roster.ics", h.Export.ExportRoster)
			}
		}
	}

	return r
}

// healthHandler 200 when every dependency answers, 503 otherwise.
func healthHandler(checks map[string]Checker) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckBudget)
		defer cancel()

		status := http.StatusOK
		deps := make(gin.H, len(names))
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "dependencies": deps})
	}
}
