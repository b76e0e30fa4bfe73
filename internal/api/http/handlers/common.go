package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/store"
)

// requireActor returns the signed-in user or a 401.
func requireActor(session *store.SessionStore) (*domain.UserProfile, error) {
	user := session.Snapshot().User
	if user == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "sign in required")
	}
	return user, nil
}

// requireCapability returns the signed-in user when they may perform action.
func requireCapability(session *store.SessionStore, action auth.Action, ticket *domain.Ticket) (*domain.UserProfile, error) {
	user, err := requireActor(session)
	if err != nil {
		return nil, err
	}
	if !auth.Can(user, action, ticket) {
		return nil, fiber.NewError(fiber.StatusForbidden, "not permitted for role "+string(auth.EffectiveRole(user)))
	}
	return user, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
