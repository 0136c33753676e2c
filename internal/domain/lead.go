package domain

import "time"

// Lead is a prospective customer record. Column tags match the leads table;
// the grid filter engine resolves filterable field names against the same
// columns via schema introspection.
type Lead struct {
	ID              int64      `db:"id" json:"id"`
	OwnerID         int64      `db:"owner_id" json:"owner_id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Email           *string    `db:"email" json:"email,omitempty"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Source          *string    `db:"source" json:"source,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	Age             *int64     `db:"age" json:"age,omitempty"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	LastContactedAt *time.Time `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
}
