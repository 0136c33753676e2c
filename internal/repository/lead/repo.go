package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cybernet-io/leadgrid/internal/db"
	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/grid"
)

// database is the consumer interface for lead storage (ISP).
type database interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// leadColumns is the select list for lead rows; it must stay in sync with
// the db tags on domain.Lead.
var leadColumns = []string{
	"id", "owner_id", "first_name", "last_name", "email", "phone",
	"source", "notes", "age", "is_active",
	"created_at", "updated_at", "last_contacted_at",
}

// Repo implements usecase/lead.Repository over Postgres.
type Repo struct {
	db     database
	table  string
	schema grid.SchemaMap
	custom grid.CustomFields
}

// New creates a lead repository over the given table. LoadSchema must run
// before filtered listing.
func New(database database, table string) *Repo {
	return &Repo{db: database, table: table}
}

// WithCustomFields installs the immutable custom-field override table.
func (r *Repo) WithCustomFields(custom grid.CustomFields) *Repo {
	r.custom = custom
	return r
}

// Schema returns the introspected semantic-type map.
func (r *Repo) Schema() grid.Schema { return r.schema }

// List returns the owner's leads narrowed by the descriptor sequence, in a
// stable id order. The composed query executes exactly once, here.
func (r *Repo) List(
	ctx context.Context, ownerID int64,
	descriptors []grid.Descriptor, limit, offset int,
) ([]domain.Lead, error) {
	q := db.NewQuery(r.table, leadColumns...).
		Filter(`"owner_id" = ?`, ownerID)

	pipeline := grid.NewPipeline(r.schema, r.custom)
	q, err := pipeline.Apply(q, descriptors)
	if err != nil {
		return nil, err
	}

	q.OrderBy("id", false).Limit(limit).Offset(offset)

	query, args, err := q.SQL()
	if err != nil {
		return nil, fmt.Errorf("render lead query: %w", err)
	}

	var leads []domain.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// Get returns one lead by id.
func (r *Repo) Get(ctx context.Context, id int64) (domain.Lead, error) {
	q := db.NewQuery(r.table, leadColumns...).Filter(`"id" = ?`, id)
	query, args, err := q.SQL()
	if err != nil {
		return domain.Lead{}, fmt.Errorf("render lead query: %w", err)
	}

	var l domain.Lead
	if err := r.db.GetContext(ctx, &l, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Lead{}, fmt.Errorf("lead %d: %w", id, domain.ErrNotFound)
		}
		return domain.Lead{}, fmt.Errorf("get lead %d: %w", id, err)
	}
	return l, nil
}
