package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	WorkItems      *handlers.WorkItemsHandler
	Assignments    *handlers.AssignmentHandler
	Corbeille      *handlers.CorbeilleHandler
	Bulk           *handlers.BulkHandler
	Stats          *handlers.WorkflowStatsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Role gates mirror the capability table:
// intake roles create, supervisory roles assign, everyone reads their own
// corbeille.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	items := protected.Group("/work-items")
	items.Post("", auth.RequireRole(domain.RoleBureauOrdre, domain.RoleSuperAdmin), cfg.WorkItems.Create)
	items.Get("", cfg.WorkItems.List)
	items.Get("/:id", cfg.WorkItems.Get)
	items.Post("/:id/transition", cfg.WorkItems.Transition)
	items.Post("/:id/escalate", auth.RequireSupervisory(), cfg.WorkItems.Escalate)
	items.Post("/:id/return", cfg.WorkItems.Return)

	assignments := protected.Group("/assignments", auth.RequireSupervisory())
	assignments.Post("", cfg.Assignments.Assign)
	assignments.Post("/auto", cfg.Assignments.AutoAssign)

	protected.Get("/corbeille", cfg.Corbeille.View)
	protected.Get("/workflow/stats", auth.RequireSupervisory(), cfg.Stats.Workflow)

	bulk := protected.Group("/bulk")
	bulk.Post("/import", auth.RequireRole(domain.RoleBureauOrdre, domain.RoleSuperAdmin), cfg.Bulk.Import)
	bulk.Post("/transition", cfg.Bulk.Transition)
}
