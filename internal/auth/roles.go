package auth

import "github.com/spec-kit/ticketdesk/internal/domain"

// Action names a UI affordance whose availability depends on role.
type Action string

const (
	ActionAdvanceStatus Action = "advance_status"
	ActionClose         Action = "close"
	ActionSetAnyStatus  Action = "set_any_status"
	ActionAssign        Action = "assign"
	ActionDeleteTicket  Action = "delete_ticket"
	ActionManageUsers   Action = "manage_users"
	ActionComment       Action = "comment"
	ActionCreateTicket  Action = "create_ticket"
	ActionExport        Action = "export"
)

// rule decides one (role, action) cell. ticket may be nil for actions that
// are not about a specific ticket.
type rule func(actor *domain.UserProfile, ticket *domain.Ticket) bool

func always(*domain.UserProfile, *domain.Ticket) bool { return true }

func assignedToActor(actor *domain.UserProfile, ticket *domain.Ticket) bool {
	return ticket != nil && ticket.IsAssignedTo(actor.ID)
}

func advanceable(actor *domain.UserProfile, ticket *domain.Ticket) bool {
	if !assignedToActor(actor, ticket) {
		return false
	}
	_, ok := ticket.Status.Next()
	return ok
}

// resolvedTicket does not re-check ownership: the user dashboard is fed the
// caller's own tickets, so ownership is implied by the collection's scope.
func resolvedTicket(_ *domain.UserProfile, ticket *domain.Ticket) bool {
	return ticket != nil && ticket.Status == domain.TicketStatusResolved
}

// capabilities is the single role x action table consulted by every caller
// that decides whether to offer a control. Missing cells mean "deny".
var capabilities = map[domain.Role]map[Action]rule{
	domain.RoleUser: {
		ActionClose:        resolvedTicket,
		ActionComment:      always,
		ActionCreateTicket: always,
		ActionExport:       always,
	},
	domain.RoleSupportAgent: {
		ActionAdvanceStatus: advanceable,
		ActionComment:       always,
		ActionExport:        always,
	},
	domain.RoleAdmin: {
		ActionSetAnyStatus: always,
		ActionAssign:       always,
		ActionDeleteTicket: always,
		ActionManageUsers:  always,
		ActionComment:      always,
		ActionExport:       always,
	},
}

// EffectiveRole maps unknown roles onto USER, matching the dashboard fallback.
func EffectiveRole(actor *domain.UserProfile) domain.Role {
	if actor == nil || !actor.Role.Valid() {
		return domain.RoleUser
	}
	return actor.Role
}

// Can reports whether actor may perform action, optionally on ticket.
// These are presentation hints only; the server makes the final decision.
func Can(actor *domain.UserProfile, action Action, ticket *domain.Ticket) bool {
	if actor == nil {
		return false
	}
	check, ok := capabilities[EffectiveRole(actor)][action]
	if !ok {
		return false
	}
	return check(actor, ticket)
}

// Transitions returns the status changes actor is offered on ticket.
func Transitions(actor *domain.UserProfile, ticket *domain.Ticket) []domain.TicketStatus {
	if actor == nil || ticket == nil {
		return nil
	}
	switch {
	case Can(actor, ActionSetAnyStatus, ticket):
		out := make([]domain.TicketStatus, 0, len(domain.TicketStatuses))
		for _, status := range domain.TicketStatuses {
			if status != ticket.Status {
				out = append(out, status)
			}
		}
		return out
	case Can(actor, ActionAdvanceStatus, ticket):
		next, _ := ticket.Status.Next()
		return []domain.TicketStatus{next}
	case Can(actor, ActionClose, ticket):
		return []domain.TicketStatus{domain.TicketStatusClosed}
	}
	return nil
}

// CanTransition reports whether target is among the offered transitions.
func CanTransition(actor *domain.UserProfile, ticket *domain.Ticket, target domain.TicketStatus) bool {
	for _, status := range Transitions(actor, ticket) {
		if status == target {
			return true
		}
	}
	return false
}
