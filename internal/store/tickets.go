package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/gateway"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// TicketAPI is the part of the gateway the ticket store calls.
type TicketAPI interface {
	CreateTicket(ctx context.Context, token string, req gateway.CreateTicketRequest) (*domain.Ticket, error)
	MyTickets(ctx context.Context, token string) ([]domain.Ticket, error)
	AllTickets(ctx context.Context, token string, query gateway.TicketQuery) ([]domain.Ticket, error)
	AssignedTickets(ctx context.Context, token string) ([]domain.Ticket, error)
	Ticket(ctx context.Context, token string, id int64) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, token string, id int64, status domain.TicketStatus) (*domain.Ticket, error)
	Assign(ctx context.Context, token string, id, agentID int64) (*domain.Ticket, error)
	Unassign(ctx context.Context, token string, id int64) (*domain.Ticket, error)
	AddComment(ctx context.Context, token string, id int64, content string) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, token string, id int64) error
	Comments(ctx context.Context, token string, id int64) ([]domain.Comment, error)
}

var errEmptyTicket = errors.New("empty ticket in response")

// TicketState is the ticket collection visible to the current actor.
type TicketState struct {
	Tickets     []domain.Ticket
	Loading     bool
	Creating    bool
	Updating    bool
	Error       *apperrors.APIError
	CreateError *apperrors.APIError
}

// TicketDependencies bundles collaborators for the ticket store.
type TicketDependencies struct {
	API        TicketAPI
	Tokens     TokenSource
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketStore owns TicketState.
type TicketStore struct {
	mu       sync.Mutex
	state    TicketState
	inflight int
	api    TicketAPI
	tokens TokenSource
	log    actionLog
}

// NewTicketStore constructs an empty ticket store.
func NewTicketStore(deps TicketDependencies) *TicketStore {
	return &TicketStore{
		api:    deps.API,
		tokens: deps.Tokens,
		log:    newActionLog(deps.Dispatcher, deps.Logger),
	}
}

// Snapshot returns a copy of the state; the ticket slice is not shared.
func (s *TicketStore) Snapshot() TicketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Tickets = append([]domain.Ticket(nil), s.state.Tickets...)
	return snap
}

// FetchMine replaces the collection with the caller's own tickets.
func (s *TicketStore) FetchMine(ctx context.Context) ([]domain.Ticket, error) {
	return s.fetch(ctx, events.OpFetchMyTickets, s.api.MyTickets)
}

// FetchAll replaces the collection with every ticket matching query.
func (s *TicketStore) FetchAll(ctx context.Context, query gateway.TicketQuery) ([]domain.Ticket, error) {
	return s.fetch(ctx, events.OpFetchAllTickets, func(ctx context.Context, token string) ([]domain.Ticket, error) {
		return s.api.AllTickets(ctx, token, query)
	})
}

// FetchAssignedToMe replaces the collection with tickets assigned to the caller.
func (s *TicketStore) FetchAssignedToMe(ctx context.Context) ([]domain.Ticket, error) {
	return s.fetch(ctx, events.OpFetchAssigned, s.api.AssignedTickets)
}

// fetch replaces the whole collection on success. Concurrent fetches are
// not coalesced: whichever resolves last determines the collection.
// Loading stays set until every fetch in flight has resolved.
func (s *TicketStore) fetch(ctx context.Context, op events.Operation, call func(context.Context, string) ([]domain.Ticket, error)) ([]domain.Ticket, error) {
	s.mu.Lock()
	s.inflight++
	s.state.Loading = true
	s.state.Error = nil
	s.mu.Unlock()
	s.log.emit(ctx, op, events.PhaseRequest, nil, nil)

	tickets, err := s.withToken(ctx, call)
	if err != nil {
		apiErr := s.log.fail(ctx, op, err)
		s.mu.Lock()
		s.fetchDone()
		s.state.Error = apiErr
		s.mu.Unlock()
		return nil, apiErr
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}

	s.mu.Lock()
	s.state.Tickets = tickets
	s.fetchDone()
	s.state.Error = nil
	s.mu.Unlock()
	s.log.emit(ctx, op, events.PhaseSuccess, len(tickets), nil)
	return append([]domain.Ticket(nil), tickets...), nil
}

// fetchDone must be called with mu held.
func (s *TicketStore) fetchDone() {
	if s.inflight > 0 {
		s.inflight--
	}
	s.state.Loading = s.inflight > 0
}

func (s *TicketStore) withToken(ctx context.Context, call func(context.Context, string) ([]domain.Ticket, error)) ([]domain.Ticket, error) {
	token, err := s.tokens.AuthToken()
	if err != nil {
		return nil, err
	}
	return call(ctx, token)
}

// Create submits a new ticket and prepends it on success.
func (s *TicketStore) Create(ctx context.Context, req gateway.CreateTicketRequest) (*domain.Ticket, error) {
	s.mu.Lock()
	s.state.Creating = true
	s.state.CreateError = nil
	s.mu.Unlock()
	s.log.emit(ctx, events.OpCreateTicket, events.PhaseRequest, nil, nil)

	ticket, err := s.ticketCall(ctx, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return s.api.CreateTicket(ctx, token, req)
	})
	if err == nil && ticket == nil {
		err = apperrors.NewMalformedResponse(0, errEmptyTicket)
	}
	if err != nil {
		apiErr := s.log.fail(ctx, events.OpCreateTicket, err)
		s.mu.Lock()
		s.state.Creating = false
		s.state.CreateError = apiErr
		s.mu.Unlock()
		return nil, apiErr
	}

	s.mu.Lock()
	s.state.Tickets = append([]domain.Ticket{*ticket}, s.state.Tickets...)
	s.state.Creating = false
	s.mu.Unlock()
	s.log.emit(ctx, events.OpCreateTicket, events.PhaseSuccess, ticket.ID, nil)
	return ticket, nil
}

// UpdateStatus changes a ticket's status and replaces it in place.
func (s *TicketStore) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	return s.mutate(ctx, events.OpUpdateStatus, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return s.api.UpdateStatus(ctx, token, id, status)
	}, replaceTicket)
}

// Assign hands a ticket to an agent.
func (s *TicketStore) Assign(ctx context.Context, id, agentID int64) (*domain.Ticket, error) {
	return s.mutate(ctx, events.OpAssignTicket, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return s.api.Assign(ctx, token, id, agentID)
	}, replaceTicket)
}

// Unassign clears a ticket's agent.
func (s *TicketStore) Unassign(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.mutate(ctx, events.OpUnassignTicket, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return s.api.Unassign(ctx, token, id)
	}, replaceTicket)
}

// AddComment appends a comment; the server returns the whole ticket.
func (s *TicketStore) AddComment(ctx context.Context, id int64, content string) (*domain.Ticket, error) {
	return s.mutate(ctx, events.OpAddComment, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return s.api.AddComment(ctx, token, id, content)
	}, replaceTicket)
}

// Delete removes a ticket server-side, then from the collection.
func (s *TicketStore) Delete(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, events.OpDeleteTicket, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return &domain.Ticket{ID: id}, s.api.DeleteTicket(ctx, token, id)
	}, removeTicket)
	return err
}

// mutate runs a single-ticket change and, on success, folds the returned
// ticket into the collection with apply.
func (s *TicketStore) mutate(
	ctx context.Context,
	op events.Operation,
	call func(context.Context, string) (*domain.Ticket, error),
	apply func([]domain.Ticket, domain.Ticket) []domain.Ticket,
) (*domain.Ticket, error) {
	s.mu.Lock()
	s.state.Updating = true
	s.state.Error = nil
	s.mu.Unlock()
	s.log.emit(ctx, op, events.PhaseRequest, nil, nil)

	ticket, err := s.ticketCall(ctx, call)
	if err == nil && ticket == nil {
		err = apperrors.NewMalformedResponse(0, errEmptyTicket)
	}
	if err != nil {
		apiErr := s.log.fail(ctx, op, err)
		s.mu.Lock()
		s.state.Updating = false
		s.state.Error = apiErr
		s.mu.Unlock()
		return nil, apiErr
	}

	s.mu.Lock()
	s.state.Tickets = apply(s.state.Tickets, *ticket)
	s.state.Updating = false
	s.mu.Unlock()
	s.log.emit(ctx, op, events.PhaseSuccess, ticket.ID, nil)
	return ticket, nil
}

func (s *TicketStore) ticketCall(ctx context.Context, call func(context.Context, string) (*domain.Ticket, error)) (*domain.Ticket, error) {
	token, err := s.tokens.AuthToken()
	if err != nil {
		return nil, err
	}
	return call(ctx, token)
}

// Get loads one ticket without touching the collection.
func (s *TicketStore) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.ticketCall(ctx, func(ctx context.Context, token string) (*domain.Ticket, error) {
		return s.api.Ticket(ctx, token, id)
	})
	if err != nil {
		return nil, apperrors.ToAPIError(err)
	}
	return ticket, nil
}

// Comments loads a ticket's thread without touching the collection.
func (s *TicketStore) Comments(ctx context.Context, id int64) ([]domain.Comment, error) {
	token, err := s.tokens.AuthToken()
	if err != nil {
		return nil, apperrors.ToAPIError(err)
	}
	comments, err := s.api.Comments(ctx, token, id)
	if err != nil {
		return nil, apperrors.ToAPIError(err)
	}
	return comments, nil
}

// Find returns the cached ticket with id.
func (s *TicketStore) Find(id int64) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.state.Tickets {
		if ticket.ID == id {
			return ticket, true
		}
	}
	return domain.Ticket{}, false
}

// ClearError drops both recorded errors.
func (s *TicketStore) ClearError(ctx context.Context) {
	s.mu.Lock()
	s.state.Error = nil
	s.state.CreateError = nil
	s.mu.Unlock()
	s.log.emit(ctx, events.OpClearTicketError, events.PhaseSync, nil, nil)
}

// Reset empties the collection, used when the session ends. Fetches still
// in flight keep Loading set until they resolve.
func (s *TicketStore) Reset() {
	s.mu.Lock()
	s.state = TicketState{Loading: s.inflight > 0}
	s.mu.Unlock()
}

func replaceTicket(tickets []domain.Ticket, updated domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	for i, ticket := range tickets {
		if ticket.ID == updated.ID {
			ticket = updated
		}
		out[i] = ticket
	}
	return out
}

func removeTicket(tickets []domain.Ticket, removed domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.ID != removed.ID {
			out = append(out, ticket)
		}
	}
	return out
}
