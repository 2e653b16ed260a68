package notification

import (
	"fmt"

	"agency_backend/internal/email"
	"agency_backend/platform/config"
	"agency_backend/platform/logger"
)

// New builds the dispatcher for the configured NOTIFICATION_MODE. queue may be
// nil unless the mode is "queue".
func New(cfg config.NotificationConfig, sender email.Sender, queue Enqueuer, metrics Recorder, log *logger.Logger) (Dispatcher, error) {
	var d Dispatcher
	switch cfg.GetNotificationMode() {
	case config.NotificationModeDirect:
		d = NewEmailDispatcher(sender)
	case config.NotificationModeQueue:
		if queue == nil {
			return nil, fmt.Errorf("notification mode %q needs a scheduler client", config.NotificationModeQueue)
		}
		d = NewQueueDispatcher(queue)
	case config.NotificationModeLog:
		d = NewLogDispatcher(log)
	default:
		return nil, fmt.Errorf("unknown notification mode %q", cfg.GetNotificationMode())
	}
	log.Info("notifications configured", "mode", cfg.GetNotificationMode())
	return Instrument(d, metrics), nil
}
