// Package worker runs the background notification retry consumer.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/metrics"
	"github.com/cybernet-io/leadgrid/internal/queue"
)

const (
	dequeueBlock = 5 * time.Second
	dequeueCount = 10
	errorBackoff = time.Second
)

// Redeliverer retries a stored notification.
type Redeliverer interface {
	Redeliver(ctx context.Context, id uuid.UUID) (domain.Notification, error)
}

// JobQueue is the queue surface the worker consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, consumer string, count int64, block time.Duration) ([]queue.Job, error)
	Ack(ctx context.Context, streamID string) error
	Enqueue(ctx context.Context, job queue.Job) error
}

// Notifier drains the retry queue and redelivers failed notifications.
type Notifier struct {
	queue       JobQueue
	service     Redeliverer
	consumer    string
	maxAttempts int
	logger      *zap.Logger
}

// NewNotifier creates a retry worker.
func NewNotifier(
	q JobQueue, service Redeliverer,
	consumer string, maxAttempts int, logger *zap.Logger,
) *Notifier {
	return &Notifier{
		queue:       q,
		service:     service,
		consumer:    consumer,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Run consumes the retry queue until ctx is cancelled.
func (w *Notifier) Run(ctx context.Context) {
	w.logger.Info("retry worker started", zap.String("consumer", w.consumer))

	for {
		if ctx.Err() != nil {
			w.logger.Info("retry worker stopped")
			return
		}

		jobs, err := w.queue.Dequeue(ctx, w.consumer, dequeueCount, dequeueBlock)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, job := range jobs {
			w.process(ctx, job)
		}
	}
}

func (w *Notifier) process(ctx context.Context, job queue.Job) {
	n, err := w.service.Redeliver(ctx, job.NotificationID)

	switch {
	case err == nil:
		metrics.NotificationRetriesTotal.WithLabelValues("sent").Inc()
		w.logger.Info("notification redelivered",
			zap.String("notification_id", job.NotificationID.String()),
			zap.Int("attempts", n.Attempts))

	case errors.Is(err, domain.ErrNotFound):
		metrics.NotificationRetriesTotal.WithLabelValues("missing").Inc()
		w.logger.Warn("queued notification no longer exists",
			zap.String("notification_id", job.NotificationID.String()))

	case errors.Is(err, domain.ErrProviderFailure):
		if n.Attempts < w.maxAttempts {
			metrics.NotificationRetriesTotal.WithLabelValues("requeued").Inc()
			requeue := queue.Job{
				NotificationID: job.NotificationID,
				EnqueuedAt:     time.Now().UTC(),
			}
			if err := w.queue.Enqueue(ctx, requeue); err != nil {
				w.logger.Error("requeue failed",
					zap.String("notification_id", job.NotificationID.String()),
					zap.Error(err))
			}
		} else {
			metrics.NotificationRetriesTotal.WithLabelValues("exhausted").Inc()
			w.logger.Warn("notification retries exhausted",
				zap.String("notification_id", job.NotificationID.String()),
				zap.Int("attempts", n.Attempts))
		}

	default:
		metrics.NotificationRetriesTotal.WithLabelValues("error").Inc()
		w.logger.Error("redelivery failed",
			zap.String("notification_id", job.NotificationID.String()),
			zap.Error(err))
	}

	if err := w.queue.Ack(ctx, job.StreamID); err != nil {
		w.logger.Error("ack failed",
			zap.String("stream_id", job.StreamID),
			zap.Error(err))
	}
}
