package handlers

import (
	"bytes"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/gateway"
	"github.com/spec-kit/ticketdesk/internal/views"
)

// TicketsHandler dispatches ticket actions to the ticket store.
type TicketsHandler struct {
	app     *app.App
	filters *FilterBook
	now     func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(a *app.App, filters *FilterBook) *TicketsHandler {
	return &TicketsHandler{app: a, filters: filters, now: time.Now}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	if _, err := requireCapability(h.app.Session, auth.ActionCreateTicket, nil); err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Description = strings.TrimSpace(req.Description)
	if req.Subject == "" || req.Description == "" {
		return fiber.NewError(fiber.StatusBadRequest, "subject and description required")
	}
	if req.Priority == "" {
		req.Priority = domain.TicketPriorityMedium
	}
	if !req.Priority.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid priority "+string(req.Priority))
	}

	ticket, err := h.app.Tickets.Create(c.UserContext(), gateway.CreateTicketRequest{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticket})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	if len(ticket.Comments) == 0 {
		comments, err := h.app.Tickets.Comments(c.UserContext(), ticket.ID)
		if err != nil {
			return err
		}
		ticket.Comments = comments
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetail{
		Ticket:      ticket,
		Transitions: auth.Transitions(actor, ticket),
		CanComment:  auth.Can(actor, auth.ActionComment, ticket),
		CanAssign:   auth.Can(actor, auth.ActionAssign, ticket),
		CanDelete:   auth.Can(actor, auth.ActionDeleteTicket, ticket),
	}})
}

// UpdateStatus PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if !req.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status "+string(req.Status))
	}
	if !auth.CanTransition(actor, ticket, req.Status) {
		return fiber.NewError(fiber.StatusForbidden, "status change to "+string(req.Status)+" not offered")
	}
	updated, err := h.app.Tickets.UpdateStatus(c.UserContext(), ticket.ID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// Assign PUT /tickets/:id/assign/:agentId.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	ticket, err := h.gated(c, auth.ActionAssign)
	if err != nil {
		return err
	}
	agentID, err := paramID(c, "agentId")
	if err != nil {
		return err
	}
	updated, err := h.app.Tickets.Assign(c.UserContext(), ticket.ID, agentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// Unassign PUT /tickets/:id/unassign.
func (h *TicketsHandler) Unassign(c *fiber.Ctx) error {
	ticket, err := h.gated(c, auth.ActionAssign)
	if err != nil {
		return err
	}
	updated, err := h.app.Tickets.Unassign(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	ticket, err := h.gated(c, auth.ActionComment)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return fiber.NewError(fiber.StatusBadRequest, "content required")
	}
	updated, err := h.app.Tickets.AddComment(c.UserContext(), ticket.ID, content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": updated})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	ticket, err := h.gated(c, auth.ActionDeleteTicket)
	if err != nil {
		return err
	}
	if err := h.app.Tickets.Delete(c.UserContext(), ticket.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export GET /tickets/export.csv writes the actor's filtered tickets.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	actor, err := requireCapability(h.app.Session, auth.ActionExport, nil)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := views.ExportCSV(&buf, ticketsFor(h.app, h.filters, actor)); err != nil {
		return err
	}
	c.Attachment(views.ExportFilename(h.now()))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// lookup resolves :id against the cached collection, falling back to the
// server for tickets outside it.
func (h *TicketsHandler) lookup(c *fiber.Ctx) (*domain.UserProfile, *domain.Ticket, error) {
	actor, err := requireActor(h.app.Session)
	if err != nil {
		return nil, nil, err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return nil, nil, err
	}
	if cached, ok := h.app.Tickets.Find(id); ok {
		return actor, &cached, nil
	}
	ticket, err := h.app.Tickets.Get(c.UserContext(), id)
	if err != nil {
		return nil, nil, err
	}
	return actor, ticket, nil
}

func (h *TicketsHandler) gated(c *fiber.Ctx, action auth.Action) (*domain.Ticket, error) {
	actor, ticket, err := h.lookup(c)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor, action, ticket) {
		return nil, fiber.NewError(fiber.StatusForbidden, "not permitted for role "+string(auth.EffectiveRole(actor)))
	}
	return ticket, nil
}
