package notification

import (
	"context"
	"database/sql"
)

type mockResult struct {
	affected int64
}

func (r mockResult) LastInsertId() (int64, error) { return 0, nil }
func (r mockResult) RowsAffected() (int64, error) { return r.affected, nil }

type mockDB struct {
	lastQuery string
	lastArg   any
	lastArgs  []any
	affected  int64

	namedErr  error
	selectErr error
	onSelect  func(dest any)
}

func (m *mockDB) NamedExecContext(_ context.Context, query string, arg any) (sql.Result, error) {
	m.lastQuery = query
	m.lastArg = arg
	if m.namedErr != nil {
		return nil, m.namedErr
	}
	return mockResult{affected: m.affected}, nil
}

func (m *mockDB) SelectContext(_ context.Context, dest any, query string, args ...any) error {
	m.lastQuery = query
	m.lastArgs = args
	if m.selectErr != nil {
		return m.selectErr
	}
	if m.onSelect != nil {
		m.onSelect(dest)
	}
	return nil
}
