package dto

import "github.com/spec-kit/ticketdesk/internal/domain"

// CreateUserRequest payload for POST /users.
type CreateUserRequest struct {
	FirstName string      `json:"firstName" form:"firstName"`
	LastName  string      `json:"lastName" form:"lastName"`
	Email     string      `json:"email" form:"email"`
	Password  string      `json:"password" form:"password"`
	Role      domain.Role `json:"role" form:"role"`
}

// RoleRequest payload for PUT /users/:id/role.
type RoleRequest struct {
	Role domain.Role `json:"role" form:"role"`
}
