package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-authority/internal/api/http/handlers"
	"github.com/spec-kit/token-authority/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Sessions       *handlers.SessionsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/sessions", cfg.Sessions.Create)
	authGroup.Post("/sessions/refresh", cfg.Sessions.Refresh)
	authGroup.Post("/sessions/logout", cfg.Sessions.Logout)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/sessions/current", cfg.Sessions.Current)

	admin := authGroup.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireVerified(), auth.RequireAuthority("ADMIN"))
	admin.Get("/sessions/:username", cfg.Sessions.Inspect)
}
