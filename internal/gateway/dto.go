package gateway

import "github.com/spec-kit/ticketdesk/internal/domain"

// SignInRequest payload for auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest payload for auth/signup.
type RegisterRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      domain.Role `json:"role"`
}

// AuthResult is the normalized sign-in/sign-up response.
type AuthResult struct {
	Token string              `json:"token"`
	User  *domain.UserProfile `json:"user"`
}

// authResponse accepts both field names the server uses for the token.
type authResponse struct {
	Token   string              `json:"token"`
	JWT     string              `json:"jwt"`
	Message string              `json:"message"`
	User    *domain.UserProfile `json:"user"`
}

func (r authResponse) result() AuthResult {
	token := r.Token
	if token == "" {
		token = r.JWT
	}
	return AuthResult{Token: token, User: r.User}
}

// ProfileUpdate payload for PUT api/users/profile.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}

// CreateUserRequest payload for admin user creation.
type CreateUserRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      domain.Role `json:"role"`
}

type roleUpdateRequest struct {
	Role domain.Role `json:"role"`
}

// CreateTicketRequest payload for POST api/tickets.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// TicketQuery narrows the all-tickets listing server-side.
type TicketQuery struct {
	Status   domain.TicketStatus
	Priority domain.TicketPriority
}

type commentRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	Message string `json:"message"`
}
