package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/queue"
)

// LeadReader resolves the lead a notification is addressed to.
type LeadReader interface {
	Get(ctx context.Context, id int64) (domain.Lead, error)
}

// Repository defines the storage contract for notifications.
type Repository interface {
	Create(ctx context.Context, n domain.Notification) error
	UpdateOutcome(ctx context.Context, n domain.Notification) error
	Get(ctx context.Context, id uuid.UUID) (domain.Notification, error)
	ListByLead(ctx context.Context, leadID int64, channel domain.Channel) ([]domain.Notification, error)
}

// Provider delivers one message over a single channel.
type Provider interface {
	Channel() domain.Channel
	Sender() string
	Send(ctx context.Context, recipient, body string) (providerID string, err error)
}

// RetryQueue defers failed deliveries for the worker.
type RetryQueue interface {
	Enqueue(ctx context.Context, job queue.Job) error
}
