package views

import "github.com/spec-kit/ticketdesk/internal/domain"

// TicketStats counts a scoped, unfiltered ticket collection. Agent and
// admin dashboards fill the extra counters.
type TicketStats struct {
	Total        int `json:"total"`
	Open         int `json:"open"`
	InProgress   int `json:"inProgress"`
	Resolved     int `json:"resolved"`
	Closed       int `json:"closed"`
	Assigned     int `json:"assigned,omitempty"`
	TotalAll     int `json:"totalAll,omitempty"`
	HighPriority int `json:"highPriority,omitempty"`
	Unassigned   int `json:"unassigned,omitempty"`
}

// UserStats counts accounts per role.
type UserStats struct {
	Total  int `json:"total"`
	Admins int `json:"admins"`
	Agents int `json:"agents"`
	Users  int `json:"users"`
}

func countTickets(tickets []domain.Ticket) TicketStats {
	stats := TicketStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats
}

func countUsers(users []domain.UserProfile) UserStats {
	stats := UserStats{Total: len(users)}
	for _, u := range users {
		switch u.Role {
		case domain.RoleAdmin:
			stats.Admins++
		case domain.RoleSupportAgent:
			stats.Agents++
		case domain.RoleUser:
			stats.Users++
		}
	}
	return stats
}
