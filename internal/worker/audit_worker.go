package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/token-authority/internal/events"
)

// StartAuditWorker subscribes audit-log handlers for token lifecycle
// events.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}

	log := func(ctx context.Context, event events.Event) error {
		logger.Info("session event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("username", event.Username),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
		return nil
	}

	dispatcher.Subscribe(events.EventSessionIssued, log)
	dispatcher.Subscribe(events.EventSessionRefreshed, log)
	dispatcher.Subscribe(events.EventSessionRevoked, log)
}
