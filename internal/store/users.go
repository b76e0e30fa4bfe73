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

var errEmptyUser = errors.New("empty user in response")

// UserAPI is the admin part of the gateway.
type UserAPI interface {
	ListUsers(ctx context.Context, token string) ([]domain.UserProfile, error)
	CreateUser(ctx context.Context, token string, req gateway.CreateUserRequest) (*domain.UserProfile, error)
	UpdateUserRole(ctx context.Context, token string, userID int64, role domain.Role) (*domain.UserProfile, error)
	DeleteUser(ctx context.Context, token string, userID int64) (string, error)
}

// UserState is the admin dashboard's account collection.
type UserState struct {
	Users       []domain.UserProfile
	Loading     bool
	Creating    bool
	Error       *apperrors.APIError
	CreateError *apperrors.APIError
}

// UserDependencies bundles collaborators for the user store.
type UserDependencies struct {
	API        UserAPI
	Tokens     TokenSource
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// UserStore owns UserState.
type UserStore struct {
	mu     sync.Mutex
	state  UserState
	api    UserAPI
	tokens TokenSource
	log    actionLog
}

// NewUserStore constructs an empty user store.
func NewUserStore(deps UserDependencies) *UserStore {
	return &UserStore{
		api:    deps.API,
		tokens: deps.Tokens,
		log:    newActionLog(deps.Dispatcher, deps.Logger),
	}
}

// Snapshot returns a copy of the state.
func (s *UserStore) Snapshot() UserState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Users = append([]domain.UserProfile(nil), s.state.Users...)
	return snap
}

func (s *UserStore) start(ctx context.Context, op events.Operation) {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = nil
	s.mu.Unlock()
	s.log.emit(ctx, op, events.PhaseRequest, nil, nil)
}

func (s *UserStore) failed(ctx context.Context, op events.Operation, err error) error {
	apiErr := s.log.fail(ctx, op, err)
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = apiErr
	s.mu.Unlock()
	return apiErr
}

// FetchAll replaces the collection with every account.
func (s *UserStore) FetchAll(ctx context.Context) ([]domain.UserProfile, error) {
	s.start(ctx, events.OpFetchUsers)
	token, err := s.tokens.AuthToken()
	if err != nil {
		return nil, s.failed(ctx, events.OpFetchUsers, err)
	}
	users, err := s.api.ListUsers(ctx, token)
	if err != nil {
		return nil, s.failed(ctx, events.OpFetchUsers, err)
	}
	if users == nil {
		users = []domain.UserProfile{}
	}

	s.mu.Lock()
	s.state.Users = users
	s.state.Loading = false
	s.mu.Unlock()
	s.log.emit(ctx, events.OpFetchUsers, events.PhaseSuccess, len(users), nil)
	return append([]domain.UserProfile(nil), users...), nil
}

// Create adds an account and appends it on success.
func (s *UserStore) Create(ctx context.Context, req gateway.CreateUserRequest) (*domain.UserProfile, error) {
	s.mu.Lock()
	s.state.Creating = true
	s.state.CreateError = nil
	s.mu.Unlock()
	s.log.emit(ctx, events.OpCreateUser, events.PhaseRequest, nil, nil)

	user, err := s.callUser(func(token string) (*domain.UserProfile, error) {
		return s.api.CreateUser(ctx, token, req)
	})
	if err != nil {
		apiErr := s.log.fail(ctx, events.OpCreateUser, err)
		s.mu.Lock()
		s.state.Creating = false
		s.state.CreateError = apiErr
		s.mu.Unlock()
		return nil, apiErr
	}

	s.mu.Lock()
	s.state.Users = append(s.state.Users, *user)
	s.state.Creating = false
	s.mu.Unlock()
	s.log.emit(ctx, events.OpCreateUser, events.PhaseSuccess, user.ID, nil)
	return user, nil
}

// UpdateRole changes an account's role and replaces it by id.
func (s *UserStore) UpdateRole(ctx context.Context, userID int64, role domain.Role) (*domain.UserProfile, error) {
	s.start(ctx, events.OpUpdateUserRole)
	user, err := s.callUser(func(token string) (*domain.UserProfile, error) {
		return s.api.UpdateUserRole(ctx, token, userID, role)
	})
	if err != nil {
		return nil, s.failed(ctx, events.OpUpdateUserRole, err)
	}

	s.mu.Lock()
	for i := range s.state.Users {
		if s.state.Users[i].ID == user.ID {
			s.state.Users[i] = *user
		}
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.log.emit(ctx, events.OpUpdateUserRole, events.PhaseSuccess, user.ID, nil)
	return user, nil
}

// Delete removes an account and returns the server's confirmation message.
func (s *UserStore) Delete(ctx context.Context, userID int64) (string, error) {
	s.start(ctx, events.OpDeleteUser)
	token, err := s.tokens.AuthToken()
	if err != nil {
		return "", s.failed(ctx, events.OpDeleteUser, err)
	}
	msg, err := s.api.DeleteUser(ctx, token, userID)
	if err != nil {
		return "", s.failed(ctx, events.OpDeleteUser, err)
	}

	s.mu.Lock()
	kept := make([]domain.UserProfile, 0, len(s.state.Users))
	for _, user := range s.state.Users {
		if user.ID != userID {
			kept = append(kept, user)
		}
	}
	s.state.Users = kept
	s.state.Loading = false
	s.mu.Unlock()
	s.log.emit(ctx, events.OpDeleteUser, events.PhaseSuccess, userID, nil)
	return msg, nil
}

func (s *UserStore) callUser(call func(token string) (*domain.UserProfile, error)) (*domain.UserProfile, error) {
	token, err := s.tokens.AuthToken()
	if err != nil {
		return nil, err
	}
	user, err := call(token)
	if err == nil && user == nil {
		err = apperrors.NewMalformedResponse(0, errEmptyUser)
	}
	return user, err
}

// ClearError drops both recorded errors.
func (s *UserStore) ClearError(ctx context.Context) {
	s.mu.Lock()
	s.state.Error = nil
	s.state.CreateError = nil
	s.mu.Unlock()
	s.log.emit(ctx, events.OpClearUserError, events.PhaseSync, nil, nil)
}

// Reset empties the collection, used when the session ends.
func (s *UserStore) Reset() {
	s.mu.Lock()
	s.state = UserState{}
	s.mu.Unlock()
}
