package dto

import "github.com/spec-kit/ticketdesk/internal/domain"

// CreateTicketRequest payload for POST /tickets.
type CreateTicketRequest struct {
	Subject     string                `json:"subject" form:"subject"`
	Description string                `json:"description" form:"description"`
	Priority    domain.TicketPriority `json:"priority" form:"priority"`
}

// StatusRequest payload for PUT /tickets/:id/status.
type StatusRequest struct {
	Status domain.TicketStatus `json:"status" form:"status"`
}

// CommentRequest payload for POST /tickets/:id/comments.
type CommentRequest struct {
	Content string `json:"content" form:"content"`
}

// TicketDetail is a ticket with the actions the actor is offered on it.
type TicketDetail struct {
	Ticket      *domain.Ticket        `json:"ticket"`
	Transitions []domain.TicketStatus `json:"transitions"`
	CanComment  bool                  `json:"canComment"`
	CanAssign   bool                  `json:"canAssign"`
	CanDelete   bool                  `json:"canDelete"`
}
