package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// Operation names a store action independent of its phase.
type Operation string

const (
	OpLogin             Operation = "LOGIN"
	OpRegister          Operation = "REGISTER"
	OpFetchProfile      Operation = "FETCH_PROFILE"
	OpUpdateProfile     Operation = "UPDATE_PROFILE"
	OpLogout            Operation = "LOGOUT"
	OpFetchMyTickets    Operation = "FETCH_MY_TICKETS"
	OpFetchAllTickets   Operation = "FETCH_ALL_TICKETS"
	OpFetchAssigned     Operation = "FETCH_ASSIGNED_TICKETS"
	OpCreateTicket      Operation = "CREATE_TICKET"
	OpUpdateStatus      Operation = "UPDATE_TICKET_STATUS"
	OpAssignTicket      Operation = "ASSIGN_TICKET"
	OpUnassignTicket    Operation = "UNASSIGN_TICKET"
	OpAddComment        Operation = "ADD_COMMENT"
	OpDeleteTicket      Operation = "DELETE_TICKET"
	OpFetchUsers        Operation = "FETCH_USERS"
	OpCreateUser        Operation = "CREATE_USER"
	OpUpdateUserRole    Operation = "UPDATE_USER_ROLE"
	OpDeleteUser        Operation = "DELETE_USER"
	OpClearSessionError Operation = "CLEAR_SESSION_ERROR"
	OpClearTicketError  Operation = "CLEAR_TICKET_ERROR"
	OpClearUserError    Operation = "CLEAR_USER_ERROR"
)

// Phase is the stage of an asynchronous store action.
type Phase string

const (
	PhaseRequest Phase = "REQUEST"
	PhaseSuccess Phase = "SUCCESS"
	PhaseFailure Phase = "FAILURE"
	// PhaseSync marks actions that complete without I/O, such as logout.
	PhaseSync Phase = "SYNC"
)

// ActionType is the dispatcher routing key, e.g. LOGIN_SUCCESS.
type ActionType string

// TypeOf joins an operation and phase into an ActionType.
func TypeOf(op Operation, phase Phase) ActionType {
	if phase == PhaseSync {
		return ActionType(op)
	}
	return ActionType(fmt.Sprintf("%s_%s", op, phase))
}

// AnyAction subscribes a handler to every published action.
const AnyAction ActionType = "*"

// Action is one entry in the store action log.
type Action struct {
	ID        string              `json:"id"`
	Type      ActionType          `json:"type"`
	Op        Operation           `json:"op"`
	Phase     Phase               `json:"phase"`
	Timestamp time.Time           `json:"timestamp"`
	Payload   any                 `json:"payload,omitempty"`
	Error     *apperrors.APIError `json:"error,omitempty"`
}

// NewAction stamps an action with a fresh id and the current time.
func NewAction(op Operation, phase Phase, payload any, err error) Action {
	return Action{
		ID:        uuid.NewString(),
		Type:      TypeOf(op, phase),
		Op:        op,
		Phase:     phase,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Error:     apperrors.ToAPIError(err),
	}
}
