package lead

import (
	"context"
	"testing"

	"github.com/cybernet-io/leadgrid/internal/grid"
)

// mockDB implements the consumer interface for tests, capturing the
// rendered SQL instead of executing it.
type mockDB struct {
	selectFn func(ctx context.Context, dest any, query string, args ...any) error

	lastQuery string
	lastArgs  []any
}

func (m *mockDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	m.lastQuery = query
	m.lastArgs = args
	if m.selectFn != nil {
		return m.selectFn(ctx, dest, query, args...)
	}
	return nil
}

func (m *mockDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	m.lastQuery = query
	m.lastArgs = args
	if m.selectFn != nil {
		return m.selectFn(ctx, dest, query, args...)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockDB) {
	t.Helper()
	m := &mockDB{}
	r := New(m, "leads")
	r.schema = grid.SchemaMap{
		"first_name": grid.FieldChar,
		"email":      grid.FieldChar,
		"age":        grid.FieldInteger,
		"is_active":  grid.FieldBoolean,
		"created_at": grid.FieldDateTime,
	}
	return r, m
}
