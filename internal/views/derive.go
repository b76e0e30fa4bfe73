package views

import (
	"strings"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// TicketView is a derived ticket table.
type TicketView struct {
	Filters   FilterState     `json:"filters"`
	Visible   []domain.Ticket `json:"-"`
	Rows      []domain.Ticket `json:"rows"`
	Matched   int             `json:"matched"`
	PageCount int             `json:"pageCount"`
	Stats     TicketStats     `json:"stats"`
}

// UserView is the derived admin account table.
type UserView struct {
	Filters   FilterState          `json:"filters"`
	Visible   []domain.UserProfile `json:"-"`
	Rows      []domain.UserProfile `json:"rows"`
	Matched   int                  `json:"matched"`
	PageCount int                  `json:"pageCount"`
	Stats     UserStats            `json:"stats"`
}

// AdminView combines both admin tables. Agents lists the accounts tickets
// can be assigned to.
type AdminView struct {
	Tickets TicketView           `json:"tickets"`
	Users   UserView             `json:"users"`
	Agents  []domain.UserProfile `json:"agents"`
}

type ticketField func(*domain.Ticket) string

func subject(t *domain.Ticket) string     { return t.Subject }
func description(t *domain.Ticket) string { return t.Description }

func creatorFirst(t *domain.Ticket) string {
	if t.CreatedBy == nil {
		return ""
	}
	return t.CreatedBy.FirstName
}

func creatorLast(t *domain.Ticket) string {
	if t.CreatedBy == nil {
		return ""
	}
	return t.CreatedBy.LastName
}

var (
	userSearchFields  = []ticketField{subject, description}
	staffSearchFields = []ticketField{subject, description, creatorFirst, creatorLast}
)

// DeriveUser builds the user dashboard: the actor's own tickets.
func DeriveUser(tickets []domain.Ticket, actor *domain.UserProfile, f FilterState) TicketView {
	f = f.normalized()
	scoped := scope(tickets, func(t *domain.Ticket) bool {
		return actor != nil && t.IsCreatedBy(actor.ID)
	})
	return buildTicketView(scoped, f, userSearchFields, countTickets(scoped))
}

// DeriveAgent builds the support agent dashboard. TabAssigned keeps tickets
// assigned to the actor; any other tab keeps everything. The header counts
// always describe the actor's assigned tickets.
func DeriveAgent(tickets []domain.Ticket, actor *domain.UserProfile, f FilterState) TicketView {
	f = f.normalized()
	assigned := scope(tickets, func(t *domain.Ticket) bool {
		return actor != nil && t.IsAssignedTo(actor.ID)
	})
	scoped := assigned
	if f.ActiveTab != TabAssigned {
		scoped = tickets
	}
	stats := countTickets(assigned)
	stats.Assigned = len(assigned)
	stats.TotalAll = len(tickets)
	return buildTicketView(scoped, f, staffSearchFields, stats)
}

// DeriveAdminTickets builds the admin ticket table over every ticket.
func DeriveAdminTickets(tickets []domain.Ticket, f FilterState) TicketView {
	f = f.normalized()
	stats := countTickets(tickets)
	for _, t := range tickets {
		if t.Priority == domain.TicketPriorityHigh || t.Priority == domain.TicketPriorityUrgent {
			stats.HighPriority++
		}
		if t.AssignedAgent == nil {
			stats.Unassigned++
		}
	}
	return buildTicketView(tickets, f, staffSearchFields, stats)
}

// DeriveAdminUsers builds the admin account table. Search covers first
// name, last name and email.
func DeriveAdminUsers(users []domain.UserProfile, f FilterState) UserView {
	f = f.normalized()
	term := strings.ToLower(f.SearchTerm)
	visible := make([]domain.UserProfile, 0, len(users))
	for _, u := range users {
		if f.RoleFilter != All && string(u.Role) != f.RoleFilter {
			continue
		}
		if !matchesAny(term, u.FirstName, u.LastName, u.Email) {
			continue
		}
		visible = append(visible, u)
	}
	return UserView{
		Filters:   f,
		Visible:   visible,
		Rows:      Paginate(visible, f.UserPage, f.UserRowsPerPage),
		Matched:   len(visible),
		PageCount: PageCount(len(visible), f.UserRowsPerPage),
		Stats:     countUsers(users),
	}
}

// DeriveAdmin builds both admin tables from one filter state.
func DeriveAdmin(tickets []domain.Ticket, users []domain.UserProfile, f FilterState) AdminView {
	agents := make([]domain.UserProfile, 0)
	for _, u := range users {
		if u.Role == domain.RoleSupportAgent {
			agents = append(agents, u)
		}
	}
	return AdminView{
		Tickets: DeriveAdminTickets(tickets, f),
		Users:   DeriveAdminUsers(users, f),
		Agents:  agents,
	}
}

func scope(tickets []domain.Ticket, keep func(*domain.Ticket) bool) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if keep(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

func buildTicketView(scoped []domain.Ticket, f FilterState, fields []ticketField, stats TicketStats) TicketView {
	term := strings.ToLower(f.SearchTerm)
	visible := make([]domain.Ticket, 0, len(scoped))
	for i := range scoped {
		t := &scoped[i]
		if f.StatusFilter != All && string(t.Status) != f.StatusFilter {
			continue
		}
		if f.PriorityFilter != All && string(t.Priority) != f.PriorityFilter {
			continue
		}
		if !matchesTicket(term, t, fields) {
			continue
		}
		visible = append(visible, *t)
	}
	return TicketView{
		Filters:   f,
		Visible:   visible,
		Rows:      Paginate(visible, f.Page, f.RowsPerPage),
		Matched:   len(visible),
		PageCount: PageCount(len(visible), f.RowsPerPage),
		Stats:     stats,
	}
}

func matchesTicket(term string, t *domain.Ticket, fields []ticketField) bool {
	if term == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field(t)), term) {
			return true
		}
	}
	return false
}

func matchesAny(term string, values ...string) bool {
	if term == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
