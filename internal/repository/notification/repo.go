package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cybernet-io/leadgrid/internal/domain"
)

// database is the consumer interface for notification storage (ISP).
type database interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repo implements usecase/notification.Repository over Postgres.
type Repo struct {
	db database
}

// New creates a notification repository.
func New(database database) *Repo {
	return &Repo{db: database}
}

// Create persists a notification row as recorded by the dispatch path.
func (r *Repo) Create(ctx context.Context, n domain.Notification) error {
	const q = `INSERT INTO notifications
		(id, lead_id, channel, sender, recipient, body, status,
		 provider_id, error_code, error_message, attempts, send_date, created_at)
		VALUES
		(:id, :lead_id, :channel, :sender, :recipient, :body, :status,
		 :provider_id, :error_code, :error_message, :attempts, :send_date, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, q, n); err != nil {
		return fmt.Errorf("create notification %s: %w", n.ID, err)
	}
	return nil
}

// UpdateOutcome records the result of a (re)delivery attempt.
func (r *Repo) UpdateOutcome(ctx context.Context, n domain.Notification) error {
	const q = `UPDATE notifications
		SET status = :status,
		    provider_id = :provider_id,
		    error_code = :error_code,
		    error_message = :error_message,
		    attempts = :attempts,
		    send_date = :send_date
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, q, n)
	if err != nil {
		return fmt.Errorf("update notification %s: %w", n.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("notification %s: %w", n.ID, domain.ErrNotFound)
	}
	return nil
}

// Get returns one notification by id.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	const q = `SELECT * FROM notifications WHERE id = $1`

	var ns []domain.Notification
	if err := r.db.SelectContext(ctx, &ns, q, id); err != nil {
		return domain.Notification{}, fmt.Errorf("get notification %s: %w", id, err)
	}
	if len(ns) == 0 {
		return domain.Notification{}, fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return ns[0], nil
}

// ListByLead returns a lead's notifications for one channel, newest first.
func (r *Repo) ListByLead(
	ctx context.Context, leadID int64, channel domain.Channel,
) ([]domain.Notification, error) {
	const q = `SELECT * FROM notifications
		WHERE lead_id = $1 AND channel = $2
		ORDER BY created_at DESC`

	var ns []domain.Notification
	if err := r.db.SelectContext(ctx, &ns, q, leadID, channel); err != nil {
		return nil, fmt.Errorf("list notifications for lead %d: %w", leadID, err)
	}
	return ns, nil
}
