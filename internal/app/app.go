// Package app wires the client together. One App is built in main and
// passed explicitly to every surface; there is no package-level state.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/access"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/gateway"
	"github.com/spec-kit/ticketdesk/internal/observability"
	"github.com/spec-kit/ticketdesk/internal/persistence"
	"github.com/spec-kit/ticketdesk/internal/store"
	"github.com/spec-kit/ticketdesk/internal/worker"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// App is the application container.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
	Gateway    *gateway.Client
	Tokens     auth.TokenStore
	Session    *store.SessionStore
	Tickets    *store.TicketStore
	Users      *store.UserStore

	redis *persistence.Redis
}

// Option customizes New.
type Option func(*options)

type options struct {
	tokens auth.TokenStore
}

// WithTokenStore overrides the configured token store.
func WithTokenStore(tokens auth.TokenStore) Option {
	return func(o *options) { o.tokens = tokens }
}

// New builds the container from cfg.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	metrics := observability.NewMetrics()
	client, err := gateway.NewClient(cfg.API, logger.Named("gateway"), metrics)
	if err != nil {
		return nil, err
	}
	gate, err := auth.NewAccessCodeGate(cfg.Auth.AdminCode, cfg.Auth.AgentCode, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Dispatcher: events.NewInMemoryDispatcher(),
		Gateway:    client,
		Tokens:     o.tokens,
	}
	if a.Tokens == nil {
		a.Tokens, a.redis, err = NewTokenStore(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	storeLogger := logger.Named("store")
	a.Session = store.NewSessionStore(store.SessionDependencies{
		API:        client,
		Tokens:     a.Tokens,
		Gate:       gate,
		Inspector:  auth.NewTokenInspector(),
		Dispatcher: a.Dispatcher,
		Logger:     storeLogger,
	})
	a.Tickets = store.NewTicketStore(store.TicketDependencies{
		API:        client,
		Tokens:     a.Session,
		Dispatcher: a.Dispatcher,
		Logger:     storeLogger,
	})
	a.Users = store.NewUserStore(store.UserDependencies{
		API:        client,
		Tokens:     a.Session,
		Dispatcher: a.Dispatcher,
		Logger:     storeLogger,
	})
	worker.StartActionLogger(a.Dispatcher, logger.Named("actions"))
	return a, nil
}

// NewTokenStore builds the store selected by cfg.Token.Store. The Redis
// handle is returned so the caller can close it.
func NewTokenStore(cfg *config.Config, logger *zap.Logger) (auth.TokenStore, *persistence.Redis, error) {
	switch cfg.Token.Store {
	case config.TokenStoreFile, "":
		return auth.NewFileTokenStore(cfg.Token.File), nil, nil
	case config.TokenStoreMemory:
		return auth.NewMemoryTokenStore(""), nil, nil
	case config.TokenStoreRedis:
		redis := persistence.NewRedis(cfg.Redis, logger)
		return auth.NewRedisTokenStore(redis, cfg.Token.RedisKey), redis, nil
	}
	return nil, nil, fmt.Errorf("unknown token store %q", cfg.Token.Store)
}

// Close releases external connections.
func (a *App) Close() {
	a.redis.Close()
}

// Bootstrap restores a persisted session. With no persisted token it does
// nothing. A token the server rejects (401/403) or that is known to be
// expired ends the session; any other failure is returned and the token
// kept so the caller can retry.
func (a *App) Bootstrap(ctx context.Context) error {
	token, err := a.Session.Hydrate(ctx)
	if err != nil {
		return fmt.Errorf("load persisted token: %w", err)
	}
	if token == "" {
		return nil
	}
	if _, err := a.Session.FetchProfile(ctx, token); err != nil {
		if apperrors.IsAuthFailure(err) || apperrors.IsPrecondition(err) {
			a.Logger.Info("persisted session rejected, signing out", zap.Error(err))
			if logoutErr := a.Logout(ctx); logoutErr != nil {
				return errors.Join(err, logoutErr)
			}
		}
		return err
	}
	return nil
}

// Logout ends the session and drops the cached collections.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	a.Tickets.Reset()
	a.Users.Reset()
	return err
}

// LoadDashboard issues the fetches the dashboard of kind renders from.
func (a *App) LoadDashboard(ctx context.Context, kind access.DashboardKind) error {
	switch kind {
	case access.DashboardAdmin:
		_, ticketErr := a.Tickets.FetchAll(ctx, gateway.TicketQuery{})
		_, userErr := a.Users.FetchAll(ctx)
		return errors.Join(ticketErr, userErr)
	case access.DashboardAgent:
		_, err := a.Tickets.FetchAll(ctx, gateway.TicketQuery{})
		return err
	default:
		_, err := a.Tickets.FetchMine(ctx)
		return err
	}
}

// DashboardPoller refreshes the dashboard of kind every poll interval while
// visible reports true. Only user and agent dashboards poll.
func (a *App) DashboardPoller(kind access.DashboardKind, visible func() bool) (*worker.Poller, bool) {
	if kind == access.DashboardAdmin {
		return nil, false
	}
	return &worker.Poller{
		Interval: a.Config.Poll.Interval(),
		Visible:  visible,
		Fetch: func(ctx context.Context) error {
			return a.LoadDashboard(ctx, kind)
		},
		Logger: a.Logger.Named("poller"),
	}, true
}

// SessionPoller refreshes whichever dashboard the signed-in actor currently
// resolves to. Ticks with no resolved user, or an admin, do nothing.
func (a *App) SessionPoller(visible func() bool) *worker.Poller {
	return &worker.Poller{
		Interval: a.Config.Poll.Interval(),
		Visible:  visible,
		Fetch: func(ctx context.Context) error {
			state := access.ResolveDashboard(a.Session.Snapshot())
			if state.Phase != access.PhaseResolved || state.Kind == access.DashboardAdmin {
				return nil
			}
			return a.LoadDashboard(ctx, state.Kind)
		},
		Logger: a.Logger.Named("poller"),
	}
}

// Ready reports whether the token store can be read.
func (a *App) Ready(ctx context.Context) error {
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if _, err := a.Tokens.Load(ctx); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}
