package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketStatuses lists statuses in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Next returns the status that follows s in the lifecycle.
func (s TicketStatus) Next() (TicketStatus, bool) {
	for i, known := range TicketStatuses {
		if s == known && i+1 < len(TicketStatuses) {
			return TicketStatuses[i+1], true
		}
	}
	return "", false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketPriorities lists priorities from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, known := range TicketPriorities {
		if p == known {
			return true
		}
	}
	return false
}

// Ticket is a support request as the server returns it.
type Ticket struct {
	ID            int64          `json:"id"`
	Subject       string         `json:"subject"`
	Description   string         `json:"description"`
	Status        TicketStatus   `json:"status"`
	Priority      TicketPriority `json:"priority"`
	CreatedBy     *UserProfile   `json:"createdBy"`
	AssignedAgent *UserProfile   `json:"assignedAgent"`
	Comments      []Comment      `json:"comments"`
	CreatedAt     Timestamp      `json:"createdAt"`
	UpdatedAt     Timestamp      `json:"updatedAt"`
}

// IsAssignedTo reports whether the ticket's agent has the given id.
// An unassigned ticket is assigned to nobody.
func (t *Ticket) IsAssignedTo(userID int64) bool {
	return t.AssignedAgent != nil && t.AssignedAgent.ID == userID
}

// IsCreatedBy reports whether the ticket was authored by the given user.
func (t *Ticket) IsCreatedBy(userID int64) bool {
	return t.CreatedBy != nil && t.CreatedBy.ID == userID
}

// Comment is one entry in a ticket's append-only thread.
type Comment struct {
	ID        int64        `json:"id,omitempty"`
	User      *UserProfile `json:"user"`
	Content   string       `json:"content"`
	CreatedAt Timestamp    `json:"createdAt"`
}
