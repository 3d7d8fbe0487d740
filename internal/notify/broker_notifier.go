package notify

import (
	"context"
	"encoding/json"

	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/message_broaker"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type recipientMessage struct {
	Notification
	To string `json:"to"`
}

// BrokerNotifier publishes one message per recipient for a downstream delivery worker.
// Publishes share a token bucket of ratePerSec messages per second.
type BrokerNotifier struct {
	broker  message_broaker.MessageBroker
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewBrokerNotifier(broker message_broaker.MessageBroker, ratePerSec int, log logger.Logger) *BrokerNotifier {
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = ratePerSec
	}
	return &BrokerNotifier{
		broker:  broker,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

func (n *BrokerNotifier) Send(ctx context.Context, notification Notification) error {
	var errs error
	for _, to := range notification.Recipients {
		if err := n.limiter.Wait(ctx); err != nil {
			return errors.CombineErrors(errs, errors.Wrap(err, "notification rate limit"))
		}

		body, err := json.Marshal(recipientMessage{Notification: notification, To: to})
		if err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "encode notification for %s", to))
			continue
		}

		msg := message_broaker.Message{
			ID:   uuid.NewString(),
			Body: body,
			Headers: map[string]any{
				"schedule_id": notification.ScheduleID,
				"owner_id":    notification.OwnerID,
			},
		}
		if err := n.broker.Publish(ctx, "", msg); err != nil {
			n.logger.Warn("Notification publish failed",
				logger.String("schedule_id", notification.ScheduleID),
				logger.String("recipient", to),
				logger.Error(err),
			)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "notify %s", to))
		}
	}
	return errs
}

var _ Notifier = (*BrokerNotifier)(nil)
