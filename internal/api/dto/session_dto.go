package dto

import "github.com/spec-kit/ticketdesk/internal/domain"

// LoginRequest payload for POST /session/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterRequest payload for POST /session/register.
type RegisterRequest struct {
	FirstName  string      `json:"firstName" form:"firstName"`
	LastName   string      `json:"lastName" form:"lastName"`
	Email      string      `json:"email" form:"email"`
	Password   string      `json:"password" form:"password"`
	Role       domain.Role `json:"role" form:"role"`
	AccessCode string      `json:"accessCode" form:"accessCode"`
}

// ViewResponse is the body of every rendered view. Transitions lists the
// status buttons offered per ticket id on the current page.
type ViewResponse struct {
	View        string                          `json:"view"`
	Dashboard   any                             `json:"dashboard,omitempty"`
	Tickets     any                             `json:"tickets,omitempty"`
	Admin       any                             `json:"admin,omitempty"`
	Transitions map[int64][]domain.TicketStatus `json:"transitions,omitempty"`
	Loading     bool                            `json:"loading"`
	Error       any                             `json:"error,omitempty"`
}

// ProfileRequest payload for PUT /session/profile. Empty fields are left
// unchanged.
type ProfileRequest struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
}

// SessionResponse describes the signed-in actor without the token.
type SessionResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.UserProfile `json:"user,omitempty"`
	Route         string              `json:"route"`
	Loading       bool                `json:"loading"`
	Error         any                 `json:"error,omitempty"`
}
