// Package store holds client state: the session, the ticket collection and
// the admin user collection. Every mutating operation runs as a
// REQUEST/SUCCESS/FAILURE transition, publishes each phase to the action
// dispatcher, records failures in state and returns them to the caller.
// Network I/O always happens outside the state lock.
package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/events"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

// TokenSource supplies the bearer token for one dispatched action.
type TokenSource interface {
	AuthToken() (string, error)
}

// actionLog publishes store actions and logs failures.
type actionLog struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func newActionLog(dispatcher events.Dispatcher, logger *zap.Logger) actionLog {
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return actionLog{dispatcher: dispatcher, logger: logger}
}

func (l actionLog) emit(ctx context.Context, op events.Operation, phase events.Phase, payload any, err error) {
	action := events.NewAction(op, phase, payload, err)
	if phase == events.PhaseFailure && action.Error != nil {
		l.logger.Debug("store action failed",
			zap.String("action", string(action.Type)),
			zap.String("kind", string(action.Error.Kind)),
			zap.Int("status", action.Error.Status),
			zap.String("message", action.Error.Message),
		)
	}
	if pubErr := l.dispatcher.Publish(ctx, action); pubErr != nil {
		l.logger.Debug("action handler failed", zap.String("action", string(action.Type)), zap.Error(pubErr))
	}
}

// fail normalizes err, publishes the FAILURE phase and returns the
// normalized error for the caller to record and re-raise.
func (l actionLog) fail(ctx context.Context, op events.Operation, err error) *apperrors.APIError {
	apiErr := apperrors.ToAPIError(err)
	l.emit(ctx, op, events.PhaseFailure, nil, apiErr)
	return apiErr
}
