package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/app"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/views"
)

// ViewsHandler renders whatever the access router resolves a path to.
type ViewsHandler struct {
	app        *app.App
	filters    *FilterBook
	visibility *Visibility
}

// NewViewsHandler constructs handler.
func NewViewsHandler(a *app.App, filters *FilterBook, visibility *Visibility) *ViewsHandler {
	return &ViewsHandler{app: a, filters: filters, visibility: visibility}
}

// Render GET /*.
func (h *ViewsHandler) Render(c *fiber.Ctx) error {
	session := h.app.Session.Snapshot()
	decision := access.Resolve(c.Path(), session)
	if decision.IsRedirect() {
		return c.Redirect(decision.Redirect, fiber.StatusTemporaryRedirect)
	}

	resp := dto.ViewResponse{View: string(decision.View), Loading: session.Loading}
	switch decision.View {
	case access.ViewLogin, access.ViewRegister, access.ViewLoading:
		if session.Error != nil {
			resp.Error = session.Error
		}
		return c.JSON(resp)
	}

	state := access.ResolveDashboard(session)
	resp.Dashboard = state
	if state.Phase != access.PhaseResolved {
		return c.JSON(resp)
	}

	kind := state.Kind
	h.visibility.Touch()
	if c.Query("refresh") == "1" {
		h.filters.Unload(kind)
	}
	if h.filters.NeedsLoad(kind) {
		// Failures land in store state and are rendered below.
		if err := h.app.LoadDashboard(c.UserContext(), kind); err != nil {
			h.filters.Unload(kind)
		}
	}
	filters := h.filters.Apply(kind, c.Queries())

	tickets := h.app.Tickets.Snapshot()
	resp.Loading = tickets.Loading
	if tickets.Error != nil {
		resp.Error = tickets.Error
	}

	var rows []domain.Ticket
	switch kind {
	case access.DashboardAdmin:
		users := h.app.Users.Snapshot()
		admin := views.DeriveAdmin(tickets.Tickets, users.Users, filters)
		resp.Admin = admin
		resp.Loading = resp.Loading || users.Loading
		if resp.Error == nil && users.Error != nil {
			resp.Error = users.Error
		}
		rows = admin.Tickets.Rows
	case access.DashboardAgent:
		view := views.DeriveAgent(tickets.Tickets, state.User, filters)
		resp.Tickets = view
		rows = view.Rows
	default:
		view := views.DeriveUser(tickets.Tickets, state.User, filters)
		resp.Tickets = view
		rows = view.Rows
	}
	resp.Transitions = transitionsFor(state.User, rows)
	return c.JSON(resp)
}

// ticketsFor derives the visible ticket set of the actor's dashboard using
// its stored filters.
func ticketsFor(a *app.App, filters *FilterBook, actor *domain.UserProfile) []domain.Ticket {
	kind := access.KindFor(auth.EffectiveRole(actor))
	f := filters.Get(kind)
	tickets := a.Tickets.Snapshot().Tickets
	switch kind {
	case access.DashboardAdmin:
		return views.DeriveAdminTickets(tickets, f).Visible
	case access.DashboardAgent:
		return views.DeriveAgent(tickets, actor, f).Visible
	default:
		return views.DeriveUser(tickets, actor, f).Visible
	}
}

func transitionsFor(actor *domain.UserProfile, rows []domain.Ticket) map[int64][]domain.TicketStatus {
	out := make(map[int64][]domain.TicketStatus)
	for i := range rows {
		if next := auth.Transitions(actor, &rows[i]); len(next) > 0 {
			out[rows[i].ID] = next
		}
	}
	return out
}
