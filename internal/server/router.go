package server

import (
	"github.com/gin-gonic/gin"

	authhandler "food-rescue-platform/backend/internal/auth/handler"
	healthhandler "food-rescue-platform/backend/internal/health/handler"
	"food-rescue-platform/backend/internal/server/middleware"
)

// NewRouter wires the HTTP surface: public auth endpoints, bearer-protected
// session endpoints, and the health check.
func NewRouter(auth *authhandler.Handler, health *healthhandler.Handler, requireAuth gin.HandlerFunc, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.ClientIPIntoContext(), middleware.Telemetry(serviceName))

	r.GET("/health", health.Check)

	v1 := r.Group("/api/v1")
	group := v1.Group("/auth")
	group.POST("/login", auth.Login)
	group.POST("/register", auth.Register)
	group.POST("/refresh-token", auth.Refresh)
	group.POST("/reset-password", auth.ResetPassword)

	protected := group.Group("")
	protected.Use(requireAuth)
	protected.GET("/verifica", auth.Verify)
	protected.POST("/logout", auth.Logout)
	protected.POST("/logout-all", auth.LogoutAll)
	protected.GET("/active-sessions", auth.ActiveSessions)
	protected.DELETE("/revoke-session/:id", auth.RevokeSession)

	return r
}
