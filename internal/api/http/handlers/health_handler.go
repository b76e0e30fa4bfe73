package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/observability"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	api         Pinger
	tokens      Pinger
	apiMetrics  *observability.Metrics
	httpMetrics *observability.Metrics
}

// NewHealthHandler returns a new handler instance. api reaches the ticketing
// server and tokens reads the token store.
func NewHealthHandler(serviceName, version string, api, tokens Pinger, apiMetrics, httpMetrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		api:         api,
		tokens:      tokens,
		apiMetrics:  apiMetrics,
		httpMetrics: httpMetrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.api.Ping(ctx); err != nil {
		depStatus["api"] = err.Error()
		ready = false
	} else {
		depStatus["api"] = "ok"
	}

	if err := h.tokens.Ping(ctx); err != nil {
		depStatus["token_store"] = err.Error()
		ready = false
	} else {
		depStatus["token_store"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Metrics reports the request and error counters of the outbound API client
// and of this server.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"api": fiber.Map{
			"requests": h.apiMetrics.Requests(),
			"errors":   h.apiMetrics.Errors(),
		},
		"server": fiber.Map{
			"requests": h.httpMetrics.Requests(),
			"errors":   h.httpMetrics.Errors(),
		},
	})
}
