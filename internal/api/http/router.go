package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Session *handlers.SessionHandler
	Tickets *handlers.TicketsHandler
	Users   *handlers.UsersHandler
	Views   *handlers.ViewsHandler
}

// RegisterRoutes wires HTTP routes. The view catch-all is registered last.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	session := app.Group("/session")
	session.Get("", cfg.Session.Show)
	session.Post("/login", cfg.Session.Login)
	session.Post("/register", cfg.Session.Register)
	session.Post("/logout", cfg.Session.Logout)
	session.Put("/profile", cfg.Session.UpdateProfile)
	session.Post("/clear-error", cfg.Session.ClearError)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/export.csv", cfg.Tickets.Export)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assign/:agentId", cfg.Tickets.Assign)
	tickets.Put("/:id/unassign", cfg.Tickets.Unassign)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	users := app.Group("/users")
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Put("/:id/role", cfg.Users.UpdateRole)
	users.Delete("/:id", cfg.Users.Delete)

	app.Get("/*", cfg.Views.Render)
}
