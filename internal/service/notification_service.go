package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/observability"
	"github.com/campuslink/campuslink-api/internal/repository"
)

const notificationsSubject = "campuslink.notifications"

// Notifier delivers push notifications. Delivery is an external concern; this
// service only computes the recipient set and the notification text.
type Notifier interface {
	Send(ctx context.Context, pushTokens []string, text string, silent bool) error
}

// NotificationService runs the push-notification fan-out pipeline. Jobs are
// queued through NATS and consumed by a single worker group; every failure is
// logged and never propagated back to the posting operation.
type NotificationService interface {
	NotificationDispatcher
	Start(ctx context.Context)
}

type notificationService struct {
	subscriptions repository.SubscriptionRepository
	clients       repository.ClientRepository
	notifier      Notifier
	nats          *nats.Conn
	logger        zerolog.Logger
	timeout       time.Duration
}

// NewNotificationService constructs the notification fan-out service.
func NewNotificationService(subscriptions repository.SubscriptionRepository, clients repository.ClientRepository, notifier Notifier, natsConn *nats.Conn, timeout time.Duration, logger zerolog.Logger) NotificationService {
	return &notificationService{
		subscriptions: subscriptions,
		clients:       clients,
		notifier:      notifier,
		nats:          natsConn,
		logger:        logger.With().Str("component", "notification_service").Logger(),
		timeout:       timeout,
	}
}

// NotificationText derives the single-line notification for a posted message.
// An empty return means the variant carries no notification and is skipped.
func NotificationText(job NotificationJob) string {
	switch job.Type {
	case models.MessageTypeText:
		return fmt.Sprintf("%s to %s: %s", job.AuthorName, job.TagName, job.Text)
	case models.MessageTypePhoto:
		return fmt.Sprintf("%s sent a photo.", job.AuthorName)
	case models.MessageTypeVideo:
		return fmt.Sprintf("%s sent a video.", job.AuthorName)
	default:
		return ""
	}
}

// Dispatch queues the job. Fire-and-forget: a queue failure is logged and the
// job falls back to inline processing so the post itself never fails.
func (s *notificationService) Dispatch(job NotificationJob) {
	if s.nats != nil {
		payload, err := json.Marshal(job)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal notification job")
			return
		}
		err = s.nats.Publish(notificationsSubject, payload)
		if err == nil {
			return
		}
		s.logger.Warn().Err(err).Msg("failed to queue notification job, processing inline")
	}

	go s.handleJob(job)
}

// Start consumes queued notification jobs until the context is cancelled.
func (s *notificationService) Start(ctx context.Context) {
	if s.nats == nil {
		return
	}

	sub, err := s.nats.QueueSubscribe(notificationsSubject, "campuslink-notifications", func(msg *nats.Msg) {
		var job NotificationJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			s.logger.Warn().Err(err).Msg("invalid notification job payload")
			return
		}
		s.handleJob(job)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification subscription")
		}
	}()
}

func (s *notificationService) handleJob(job NotificationJob) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text := NotificationText(job)
	if text == "" {
		return
	}

	tokens, err := s.recipientTokens(ctx, job.TagID)
	if err != nil {
		s.logger.Error().Err(err).Str("tag", job.TagName).Msg("recipient expansion failed")
		observability.NotificationsSent().WithLabelValues("error").Inc()
		return
	}

	if len(tokens) == 0 {
		return
	}

	if err := s.notifier.Send(ctx, tokens, text, false); err != nil {
		s.logger.Error().Err(err).Str("tag", job.TagName).Int("recipients", len(tokens)).Msg("push delivery failed")
		observability.NotificationsSent().WithLabelValues("error").Inc()
		return
	}

	observability.NotificationsSent().WithLabelValues("ok").Inc()
	s.logger.Info().Str("tag", job.TagName).Int("recipients", len(tokens)).Msg("notifications dispatched")
}

// recipientTokens expands the tag's subscribers to every one of their clients
// holding a push token.
func (s *notificationService) recipientTokens(ctx context.Context, tagID uint) ([]string, error) {
	userIDs, err := s.subscriptions.ListUserIDsByTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	clients, err := s.clients.ListByUserWithPushToken(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(clients))
	for _, client := range clients {
		if client.PushToken != "" {
			tokens = append(tokens, client.PushToken)
		}
	}
	return tokens, nil
}
