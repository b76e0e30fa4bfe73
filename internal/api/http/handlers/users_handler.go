package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/gateway"
)

// UsersHandler exposes the admin account endpoints.
type UsersHandler struct {
	app *app.App
}

// NewUsersHandler constructs handler.
func NewUsersHandler(a *app.App) *UsersHandler {
	return &UsersHandler{app: a}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	if _, err := requireCapability(h.app.Session, auth.ActionManageUsers, nil); err != nil {
		return err
	}
	users, err := h.app.Users.FetchAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": users})
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	if _, err := requireCapability(h.app.Session, auth.ActionManageUsers, nil); err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.FirstName == "" || req.LastName == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "firstName, lastName, email, password required")
	}
	if !req.Role.Valid() {
		return fiber.NewError(http.StatusBadRequest, "invalid role "+string(req.Role))
	}
	user, err := h.app.Users.Create(c.UserContext(), gateway.CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": user})
}

// UpdateRole handles PUT /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	if _, err := requireCapability(h.app.Session, auth.ActionManageUsers, nil); err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if !req.Role.Valid() {
		return fiber.NewError(http.StatusBadRequest, "invalid role "+string(req.Role))
	}
	user, err := h.app.Users.UpdateRole(c.UserContext(), id, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": user})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if _, err := requireCapability(h.app.Session, auth.ActionManageUsers, nil); err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	message, err := h.app.Users.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": message}})
}
