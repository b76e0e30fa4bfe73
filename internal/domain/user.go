package domain

import "strings"

// Role enumerates account roles issued by the server.
type Role string

const (
	RoleUser         Role = "USER"
	RoleSupportAgent Role = "SUPPORT_AGENT"
	RoleAdmin        Role = "ADMIN"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleUser, RoleSupportAgent, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSupportAgent, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes user input such as "support_agent" into a Role.
func ParseRole(val string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(val)))
	return role, role.Valid()
}

// UserProfile is the account record returned by the API.
type UserProfile struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt Timestamp `json:"createdAt"`
}

// FullName joins first and last name.
func (u *UserProfile) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
