// Package notification implements outbound lead messaging with persistent
// delivery records and retry-on-failure.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/metrics"
	"github.com/cybernet-io/leadgrid/internal/queue"
)

// Service dispatches notifications to leads and records the outcome.
type Service struct {
	leads     LeadReader
	repo      Repository
	providers map[domain.Channel]Provider
	retry     RetryQueue
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a notification service.
func New(
	leads LeadReader, repo Repository,
	providers []Provider, retry RetryQueue, logger *zap.Logger,
) *Service {
	byChannel := make(map[domain.Channel]Provider, len(providers))
	for _, p := range providers {
		byChannel[p.Channel()] = p
	}
	return &Service{
		leads:     leads,
		repo:      repo,
		providers: byChannel,
		retry:     retry,
		logger:    logger,
		now:       time.Now,
	}
}

// Send delivers a message to the lead over the given channel and persists the
// delivery record whether or not the provider accepted it. Failed deliveries
// are queued for retry.
func (s *Service) Send(
	ctx context.Context, leadID int64, channel domain.Channel, body string,
) (domain.Notification, error) {
	if !channel.Valid() {
		return domain.Notification{}, fmt.Errorf(
			"channel %q: %w", channel, domain.ErrInvalidRecipient)
	}
	provider, ok := s.providers[channel]
	if !ok {
		return domain.Notification{}, fmt.Errorf(
			"channel %q is not configured: %w", channel, domain.ErrInvalidRecipient)
	}

	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("resolve lead: %w", err)
	}

	recipient, err := recipientFor(lead, channel)
	if err != nil {
		return domain.Notification{}, err
	}

	n := domain.Notification{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Channel:   channel,
		Sender:    provider.Sender(),
		Recipient: recipient,
		Body:      body,
		Status:    domain.StatusPending,
		Attempts:  1,
		SendDate:  s.now().UTC(),
		CreatedAt: s.now().UTC(),
	}

	providerID, sendErr := provider.Send(ctx, recipient, body)
	if sendErr != nil {
		n.Status = domain.StatusFailed
		var pErr *domain.ProviderError
		if errors.As(sendErr, &pErr) {
			n.ErrorCode = &pErr.Code
			msg := pErr.Message
			n.ErrorMessage = &msg
		} else {
			msg := sendErr.Error()
			n.ErrorMessage = &msg
		}
	} else {
		n.Status = domain.StatusSent
		n.ProviderID = &providerID
	}

	metrics.NotificationsTotal.
		WithLabelValues(string(channel), string(n.Status)).Inc()

	if err := s.repo.Create(ctx, n); err != nil {
		return domain.Notification{}, fmt.Errorf("record notification: %w", err)
	}

	if sendErr != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("notification_id", n.ID.String()),
			zap.Int64("lead_id", lead.ID),
			zap.String("channel", string(channel)),
			zap.Error(sendErr))

		job := queue.Job{NotificationID: n.ID, EnqueuedAt: s.now().UTC()}
		if err := s.retry.Enqueue(ctx, job); err != nil {
			s.logger.Error("failed to queue notification retry",
				zap.String("notification_id", n.ID.String()),
				zap.Error(err))
		}
		return n, sendErr
	}

	s.logger.Info("notification sent",
		zap.String("notification_id", n.ID.String()),
		zap.Int64("lead_id", lead.ID),
		zap.String("channel", string(channel)))
	return n, nil
}

// Redeliver retries a previously failed notification. The repository record
// is updated in place with the new outcome.
func (s *Service) Redeliver(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("load notification: %w", err)
	}
	if n.Status == domain.StatusSent {
		return n, nil
	}

	provider, ok := s.providers[n.Channel]
	if !ok {
		return domain.Notification{}, fmt.Errorf(
			"channel %q is not configured: %w", n.Channel, domain.ErrInvalidRecipient)
	}

	n.Attempts++
	n.SendDate = s.now().UTC()

	providerID, sendErr := provider.Send(ctx, n.Recipient, n.Body)
	if sendErr != nil {
		n.Status = domain.StatusFailed
		var pErr *domain.ProviderError
		if errors.As(sendErr, &pErr) {
			n.ErrorCode = &pErr.Code
			msg := pErr.Message
			n.ErrorMessage = &msg
		} else {
			msg := sendErr.Error()
			n.ErrorMessage = &msg
		}
	} else {
		n.Status = domain.StatusSent
		n.ProviderID = &providerID
		n.ErrorCode = nil
		n.ErrorMessage = nil
	}

	if err := s.repo.UpdateOutcome(ctx, n); err != nil {
		return domain.Notification{}, fmt.Errorf("record redelivery: %w", err)
	}
	if sendErr != nil {
		return n, sendErr
	}
	return n, nil
}

// History returns the lead's notifications for one channel.
func (s *Service) History(
	ctx context.Context, leadID int64, channel domain.Channel,
) ([]domain.Notification, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("channel %q: %w", channel, domain.ErrInvalidRecipient)
	}
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return nil, fmt.Errorf("resolve lead: %w", err)
	}

	ns, err := s.repo.ListByLead(ctx, leadID, channel)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return ns, nil
}

func recipientFor(lead domain.Lead, channel domain.Channel) (string, error) {
	switch channel {
	case domain.ChannelSMS:
		if lead.Phone == nil || *lead.Phone == "" {
			return "", fmt.Errorf("lead %d has no phone: %w",
				lead.ID, domain.ErrInvalidRecipient)
		}
		return *lead.Phone, nil
	case domain.ChannelEmail:
		if lead.Email == nil || *lead.Email == "" {
			return "", fmt.Errorf("lead %d has no email: %w",
				lead.ID, domain.ErrInvalidRecipient)
		}
		return *lead.Email, nil
	}
	return "", fmt.Errorf("channel %q: %w", channel, domain.ErrInvalidRecipient)
}
