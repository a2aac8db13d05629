package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	issues := api.Group("/issues")
	// /nearby must be registered before /:id or the literal segment would be
	// captured as an issue id.
	issues.Get("/nearby", cfg.Issues.Nearby)
	issues.Get("/", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Post("/", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Issues.Create)
	issues.Put("/:id", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Issues.Update)
	issues.Delete("/:id", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Issues.Delete)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Get("/issues", cfg.Admin.ListIssues)
	admin.Put("/issues/:id/status", cfg.Admin.SetStatus)
	admin.Post("/issues/:id/comment", cfg.Admin.AddComment)
}
