// Package access decides, from session state alone, which view a path
// resolves to and which dashboard variant a signed-in actor gets.
package access

import (
	"path"
	"strings"

	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/store"
)

// Navigable routes.
const (
	RouteRoot           = "/"
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteDashboard      = "/dashboard"
	RouteAdminDashboard = "/admin/dashboard"
	RouteAgentDashboard = "/agent/dashboard"
	RouteUserDashboard  = "/user/dashboard"
)

// View is a render target.
type View string

const (
	ViewLogin          View = "login"
	ViewRegister       View = "register"
	ViewLoading        View = "loading"
	ViewDashboard      View = "dashboard"
	ViewAdminDashboard View = "admin_dashboard"
	ViewAgentDashboard View = "agent_dashboard"
	ViewUserDashboard  View = "user_dashboard"
)

// Decision is either a view to render or a path to redirect to.
type Decision struct {
	View     View   `json:"view,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// IsRedirect reports whether the decision sends the caller elsewhere.
func (d Decision) IsRedirect() bool {
	return d.Redirect != ""
}

func render(v View) Decision { return Decision{View: v} }

func redirect(to string) Decision { return Decision{Redirect: to} }

func home(u *domain.UserProfile) Decision { return redirect(DefaultRoute(u)) }

// DefaultRoute is the one role to landing-route mapping. Login, register,
// the router and the CLI all go through it.
func DefaultRoute(user *domain.UserProfile) string {
	if user == nil {
		return RouteLogin
	}
	switch user.Role {
	case domain.RoleAdmin:
		return RouteAdminDashboard
	case domain.RoleSupportAgent:
		return RouteAgentDashboard
	default:
		return RouteDashboard
	}
}

// roleScoped lists the routes reserved to one role.
var roleScoped = map[string]struct {
	role domain.Role
	view View
}{
	RouteAdminDashboard: {domain.RoleAdmin, ViewAdminDashboard},
	RouteAgentDashboard: {domain.RoleSupportAgent, ViewAgentDashboard},
	RouteUserDashboard:  {domain.RoleUser, ViewUserDashboard},
}

// Normalize cleans p and strips any trailing slash.
func Normalize(p string) string {
	if p == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Resolve maps a requested path to a Decision. It never performs I/O.
func Resolve(p string, session store.Session) Decision {
	p = Normalize(p)
	user := session.User

	// A persisted token is being validated; nothing can be decided yet.
	if user == nil && session.Token != "" && session.Loading && session.Error == nil {
		return render(ViewLoading)
	}

	switch p {
	case RouteLogin, RouteRegister:
		if user != nil {
			return home(user)
		}
		if p == RouteLogin {
			return render(ViewLogin)
		}
		return render(ViewRegister)
	case RouteDashboard:
		if user == nil {
			return redirect(RouteLogin)
		}
		return render(ViewDashboard)
	}

	if scoped, ok := roleScoped[p]; ok {
		if user == nil {
			return redirect(RouteLogin)
		}
		if user.Role != scoped.role {
			return home(user)
		}
		return render(scoped.view)
	}

	return home(user)
}
