package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/gateway"
	"github.com/spec-kit/ticketdesk/internal/store"
)

// SessionHandler signs the local actor in and out.
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler constructs handler.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

// Show GET /session.
func (h *SessionHandler) Show(c *fiber.Ctx) error {
	session := h.app.Session.Snapshot()
	resp := dto.SessionResponse{
		Authenticated: session.IsAuthenticated,
		User:          session.User,
		Route:         access.DefaultRoute(session.User),
		Loading:       session.Loading,
	}
	if session.Error != nil {
		resp.Error = session.Error
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Login POST /session/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password required")
	}
	user, err := h.app.Session.Login(c.UserContext(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return err
	}
	return c.Redirect(access.DefaultRoute(user), fiber.StatusSeeOther)
}

// Register POST /session/register.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if req.FirstName == "" || req.LastName == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "firstName, lastName, email, password required")
	}
	user, err := h.app.Session.Register(c.UserContext(), store.RegisterInput{
		RegisterRequest: gateway.RegisterRequest{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     strings.TrimSpace(req.Email),
			Password:  req.Password,
			Role:      req.Role,
		},
		AccessCode: req.AccessCode,
	})
	if err != nil {
		return err
	}
	return c.Redirect(access.DefaultRoute(user), fiber.StatusSeeOther)
}

// UpdateProfile PUT /session/profile.
func (h *SessionHandler) UpdateProfile(c *fiber.Ctx) error {
	if _, err := requireActor(h.app.Session); err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	user, err := h.app.Session.UpdateProfile(c.UserContext(), gateway.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": user})
}

// Logout POST /session/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	if err := h.app.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.Redirect(access.DefaultRoute(nil), fiber.StatusSeeOther)
}

// ClearError POST /session/clear-error dismisses the stored error of every store.
func (h *SessionHandler) ClearError(c *fiber.Ctx) error {
	ctx := c.UserContext()
	h.app.Session.ClearError(ctx)
	h.app.Tickets.ClearError(ctx)
	h.app.Users.ClearError(ctx)
	return c.SendStatus(fiber.StatusNoContent)
}
