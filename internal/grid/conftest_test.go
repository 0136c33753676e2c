package grid

import (
	"testing"

	"github.com/cybernet-io/leadgrid/internal/db"
)

func testSchema() SchemaMap {
	return SchemaMap{
		"first_name":        FieldChar,
		"last_name":         FieldChar,
		"email":             FieldChar,
		"notes":             FieldText,
		"age":               FieldInteger,
		"is_active":         FieldBoolean,
		"created_at":        FieldDateTime,
		"last_contacted_at": FieldDateTime,
	}
}

func testCustomFields() CustomFields {
	return CustomFields{
		// UI-facing names remapped onto physical columns.
		"created": {Type: FieldDate, Column: "created_at"},
		"status":  {Type: FieldBoolean, Column: "is_active"},
	}
}

func newTestPipeline() *Pipeline {
	return NewPipeline(testSchema(), testCustomFields())
}

func mustSQL(t *testing.T, q *db.Query) (string, []any) {
	t.Helper()
	sql, args, err := q.SQL()
	if err != nil {
		t.Fatalf("SQL: %v", err)
	}
	return sql, args
}

func leadsQuery() *db.Query {
	return db.NewQuery("leads")
}
