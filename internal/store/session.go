package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/gateway"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// AuthAPI is the part of the gateway the session store calls.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (gateway.AuthResult, error)
	SignUp(ctx context.Context, req gateway.RegisterRequest) (gateway.AuthResult, error)
	Profile(ctx context.Context, token string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, token string, update gateway.ProfileUpdate) (*domain.UserProfile, error)
}

// AccessChecker validates a self-declared registration role.
type AccessChecker interface {
	Check(role domain.Role, code string) error
}

// Session is the authentication state of the single local actor.
type Session struct {
	Token           string
	User            *domain.UserProfile
	IsAuthenticated bool
	Loading         bool
	Error           *apperrors.APIError
}

// RegisterInput is the registration form, including the access code for
// privileged roles.
type RegisterInput struct {
	gateway.RegisterRequest
	AccessCode string
}

// SessionDependencies bundles collaborators for the session store.
type SessionDependencies struct {
	API        AuthAPI
	Tokens     auth.TokenStore
	Gate       AccessChecker
	Inspector  *auth.TokenInspector
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// SessionStore owns Session.
type SessionStore struct {
	mu    sync.Mutex
	state Session
	// epoch increments on logout so that auth results resolving afterwards
	// cannot resurrect the session.
	epoch uint64

	api       AuthAPI
	tokens    auth.TokenStore
	gate      AccessChecker
	inspector *auth.TokenInspector
	log       actionLog
}

// NewSessionStore constructs an empty session.
func NewSessionStore(deps SessionDependencies) *SessionStore {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewMemoryTokenStore("")
	}
	return &SessionStore{
		api:       deps.API,
		tokens:    tokens,
		gate:      deps.Gate,
		inspector: deps.Inspector,
		log:       newActionLog(deps.Dispatcher, deps.Logger),
	}
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	if snap.User != nil {
		user := *snap.User
		snap.User = &user
	}
	return snap
}

// Token returns the current token, possibly empty.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// AuthToken returns the token for an authenticated action. A JWT that has
// already expired is rejected here as a precondition error. An empty token
// is returned as is; the gateway rejects it before any I/O.
func (s *SessionStore) AuthToken() (string, error) {
	token := s.Token()
	if token == "" {
		return "", nil
	}
	if err := s.inspector.Check(token); err != nil {
		return "", apperrors.NewPreconditionError(err.Error())
	}
	return token, nil
}

// Hydrate loads the persisted token into state. The session is not
// authenticated until a profile fetch succeeds.
func (s *SessionStore) Hydrate(ctx context.Context) (string, error) {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.state.Token = token
	s.mu.Unlock()
	return token, nil
}

// begin applies the REQUEST phase shared by every session action.
func (s *SessionStore) begin(ctx context.Context, op events.Operation) uint64 {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = nil
	epoch := s.epoch
	s.mu.Unlock()
	s.log.emit(ctx, op, events.PhaseRequest, nil, nil)
	return epoch
}

// Login signs in and persists the issued token.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*domain.UserProfile, error) {
	epoch := s.begin(ctx, events.OpLogin)
	result, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		return nil, s.failAuth(ctx, events.OpLogin, epoch, err)
	}
	return s.authenticated(ctx, events.OpLogin, epoch, result)
}

// Register runs the access-code gate, then signs up. A rejected code fails
// locally and no request is issued.
func (s *SessionStore) Register(ctx context.Context, input RegisterInput) (*domain.UserProfile, error) {
	epoch := s.begin(ctx, events.OpRegister)
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if s.gate != nil {
		if err := s.gate.Check(input.Role, input.AccessCode); err != nil {
			return nil, s.failAuth(ctx, events.OpRegister, epoch, apperrors.NewPreconditionError(err.Error()))
		}
	}
	result, err := s.api.SignUp(ctx, input.RegisterRequest)
	if err != nil {
		return nil, s.failAuth(ctx, events.OpRegister, epoch, err)
	}
	return s.authenticated(ctx, events.OpRegister, epoch, result)
}

func (s *SessionStore) authenticated(ctx context.Context, op events.Operation, epoch uint64, result gateway.AuthResult) (*domain.UserProfile, error) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.log.logger.Debug("discarding auth result resolved after logout", zap.String("op", string(op)))
		return result.User, nil
	}
	s.state = Session{
		Token:           result.Token,
		User:            result.User,
		IsAuthenticated: true,
	}
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, result.Token); err != nil {
		s.log.logger.Warn("unable to persist session token", zap.Error(err))
	}
	s.log.emit(ctx, op, events.PhaseSuccess, result.User, nil)
	return result.User, nil
}

// failAuth records a login/register failure, which also drops the user.
func (s *SessionStore) failAuth(ctx context.Context, op events.Operation, epoch uint64, err error) error {
	apiErr := s.log.fail(ctx, op, err)
	s.mu.Lock()
	if epoch == s.epoch {
		s.state.Loading = false
		s.state.Error = apiErr
		s.state.User = nil
		s.state.IsAuthenticated = false
	}
	s.mu.Unlock()
	return apiErr
}

// fail records a failure that keeps the cached user.
func (s *SessionStore) fail(ctx context.Context, op events.Operation, epoch uint64, err error) error {
	apiErr := s.log.fail(ctx, op, err)
	s.mu.Lock()
	if epoch == s.epoch {
		s.state.Loading = false
		s.state.Error = apiErr
	}
	s.mu.Unlock()
	return apiErr
}

// FetchProfile loads the profile for token, or for the session token when
// token is empty. On failure the cached user is left alone; discarding a
// rejected token is the caller's decision.
func (s *SessionStore) FetchProfile(ctx context.Context, token string) (*domain.UserProfile, error) {
	epoch := s.begin(ctx, events.OpFetchProfile)
	if token == "" {
		token = s.Token()
	}
	if token != "" {
		if err := s.inspector.Check(token); err != nil {
			return nil, s.fail(ctx, events.OpFetchProfile, epoch, apperrors.NewPreconditionError(err.Error()))
		}
	}
	profile, err := s.api.Profile(ctx, token)
	if err != nil {
		return nil, s.fail(ctx, events.OpFetchProfile, epoch, err)
	}

	s.mu.Lock()
	if epoch == s.epoch {
		s.state.Token = token
		s.state.User = profile
		s.state.IsAuthenticated = true
		s.state.Loading = false
		s.state.Error = nil
	}
	s.mu.Unlock()
	s.log.emit(ctx, events.OpFetchProfile, events.PhaseSuccess, profile, nil)
	return profile, nil
}

// UpdateProfile edits the signed-in user's own profile.
func (s *SessionStore) UpdateProfile(ctx context.Context, update gateway.ProfileUpdate) (*domain.UserProfile, error) {
	epoch := s.begin(ctx, events.OpUpdateProfile)
	token, err := s.AuthToken()
	if err != nil {
		return nil, s.fail(ctx, events.OpUpdateProfile, epoch, err)
	}
	profile, err := s.api.UpdateProfile(ctx, token, update)
	if err != nil {
		return nil, s.fail(ctx, events.OpUpdateProfile, epoch, err)
	}

	s.mu.Lock()
	if epoch == s.epoch {
		s.state.User = profile
		s.state.Loading = false
	}
	s.mu.Unlock()
	s.log.emit(ctx, events.OpUpdateProfile, events.PhaseSuccess, profile, nil)
	return profile, nil
}

// Logout resets the session to its initial empty shape and removes the
// persisted token. The reset happens even when removing the token fails.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = Session{}
	s.epoch++
	s.mu.Unlock()

	err := s.tokens.Clear(ctx)
	if err != nil {
		s.log.logger.Warn("unable to remove persisted token", zap.Error(err))
	}
	s.log.emit(ctx, events.OpLogout, events.PhaseSync, nil, nil)
	return err
}

// ClearError drops the recorded error.
func (s *SessionStore) ClearError(ctx context.Context) {
	s.mu.Lock()
	s.state.Error = nil
	s.mu.Unlock()
	s.log.emit(ctx, events.OpClearSessionError, events.PhaseSync, nil, nil)
}
