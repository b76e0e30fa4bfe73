package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/events"
)

// StartActionLogger registers a handler that writes every store action to
// logger. Failures go out at warn; the other phases at debug.
func StartActionLogger(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}
	dispatcher.Subscribe(events.AnyAction, func(_ context.Context, action events.Action) error {
		fields := []zap.Field{
			zap.String("action_id", action.ID),
			zap.String("action", string(action.Type)),
		}
		if action.Error != nil {
			fields = append(fields,
				zap.String("kind", string(action.Error.Kind)),
				zap.Int("status", action.Error.Status),
				zap.String("error", action.Error.Message),
			)
			logger.Warn("store action failed", fields...)
			return nil
		}
		logger.Debug("store action", fields...)
		return nil
	})
}
