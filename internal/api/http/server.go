package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/api/http/handlers"
	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/observability"
)

// Server is the local view server over one App.
type Server struct {
	Fiber      *fiber.App
	Filters    *handlers.FilterBook
	Visibility *handlers.Visibility
	Metrics    *observability.Metrics
}

// NewServer builds the fiber app with middlewares and routes. A dashboard
// counts as visible for two poll intervals after it was last rendered.
func NewServer(a *app.App) *Server {
	s := &Server{
		Fiber: fiber.New(fiber.Config{
			AppName:               a.Config.App.Name,
			DisableStartupMessage: true,
		}),
		Filters:    handlers.NewFilterBook(a.Config.View.PageSize),
		Visibility: handlers.NewVisibility(2 * a.Config.Poll.Interval()),
		Metrics:    observability.NewMetrics(),
	}
	s.Filters.ResetOnLogout(a.Dispatcher)

	logger := a.Logger.Named("http")
	RegisterMiddlewares(s.Fiber, logger, s.Metrics, a.Config.App.RequestTimeout())
	RegisterRoutes(s.Fiber, RouteConfig{
		Health: handlers.NewHealthHandler(
			a.Config.App.Name,
			a.Config.App.Version,
			a.Gateway,
			handlers.PingFunc(a.Ready),
			a.Metrics,
			s.Metrics,
		),
		Session: handlers.NewSessionHandler(a),
		Tickets: handlers.NewTicketsHandler(a, s.Filters),
		Users:   handlers.NewUsersHandler(a),
		Views:   handlers.NewViewsHandler(a, s.Filters, s.Visibility),
	})
	return s
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.Fiber.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Fiber.ShutdownWithContext(ctx)
}
