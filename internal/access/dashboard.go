package access

import (
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/store"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// Phase is the dashboard resolver state.
type Phase string

const (
	PhaseLoading  Phase = "LOADING"
	PhaseError    Phase = "ERROR"
	PhaseNoUser   Phase = "NO_USER"
	PhaseResolved Phase = "RESOLVED"
)

// DashboardKind selects one of the three dashboard variants.
type DashboardKind string

const (
	DashboardUser  DashboardKind = "USER"
	DashboardAgent DashboardKind = "SUPPORT_AGENT"
	DashboardAdmin DashboardKind = "ADMIN"
)

// Recovery is the user action offered by a stuck resolver.
type Recovery string

const (
	RecoveryRetry   Recovery = "retry"
	RecoveryRelogin Recovery = "relogin"
)

// DashboardState is the resolver output. Kind is set only when resolved;
// Recovery only in ERROR and NO_USER.
type DashboardState struct {
	Phase    Phase               `json:"phase"`
	Kind     DashboardKind       `json:"kind,omitempty"`
	User     *domain.UserProfile `json:"user,omitempty"`
	Error    *apperrors.APIError `json:"error,omitempty"`
	Recovery Recovery            `json:"recovery,omitempty"`
}

// KindFor picks the dashboard for role, falling back to USER.
func KindFor(role domain.Role) DashboardKind {
	switch role {
	case domain.RoleAdmin:
		return DashboardAdmin
	case domain.RoleSupportAgent:
		return DashboardAgent
	default:
		return DashboardUser
	}
}

// ResolveDashboard selects the dashboard for the session. ERROR and NO_USER
// do not advance on their own; the caller must act on Recovery.
func ResolveDashboard(session store.Session) DashboardState {
	switch {
	case session.Loading:
		return DashboardState{Phase: PhaseLoading}
	case session.Error != nil && session.User == nil:
		return DashboardState{Phase: PhaseError, Error: session.Error, Recovery: RecoveryRetry}
	case session.User == nil:
		return DashboardState{Phase: PhaseNoUser, Recovery: RecoveryRelogin}
	}
	return DashboardState{
		Phase: PhaseResolved,
		Kind:  KindFor(session.User.Role),
		User:  session.User,
	}
}
