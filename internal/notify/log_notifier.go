package notify

import (
	"context"

	"github.com/RezaEskandarii/reportfire/internal/logger"
)

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Send(_ context.Context, notification Notification) error {
	n.logger.Info("Notification",
		logger.String("schedule_id", notification.ScheduleID),
		logger.String("artifact_id", notification.ArtifactID),
		logger.Strings("recipients", notification.Recipients),
		logger.String("subject", notification.Subject),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
