package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Interactions   *handlers.InteractionsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/interactions", cfg.Interactions.Handle)

	adminGroup := app.Group("/admin", cfg.AuthMiddleware.Handle)
	adminGroup.Get("/health", cfg.Admin.Health)
	adminGroup.Post("/panel", auth.RequireAdmin(), cfg.Admin.PostPanel)
	adminGroup.Post("/reset", auth.RequireAdmin(), cfg.Admin.ResetData)
}
