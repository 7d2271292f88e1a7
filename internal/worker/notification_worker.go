package worker

import (
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/config"
	"github.com/primewheels/agent-service/internal/events"
	"github.com/primewheels/agent-service/internal/service"
)

// StartNotificationWorker subscribes applicant notifications to the
// dispatcher. It returns nil when there is nothing to subscribe to.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg)
	notifications.RegisterHandlers()
	logger.Info("notification worker started",
		zap.Bool("email", cfg.EmailFrom != ""),
		zap.Bool("webhook", cfg.WebhookURL != ""))
	return notifications
}
