package lead

import (
	"context"
	"fmt"

	"github.com/cybernet-io/leadgrid/internal/grid"
)

type columnInfo struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
}

// LoadSchema introspects information_schema for the leads table and builds
// the read-only semantic-type map the filter engine resolves fields against.
// Columns with no semantic mapping (uuid, json, numeric, ...) are left out
// and filtering on them fails as unknown fields.
func (r *Repo) LoadSchema(ctx context.Context) error {
	const q = `SELECT column_name, data_type
	           FROM information_schema.columns
	           WHERE table_name = $1`

	var cols []columnInfo
	if err := r.db.SelectContext(ctx, &cols, q, r.table); err != nil {
		return fmt.Errorf("introspect table %s: %w", r.table, err)
	}
	if len(cols) == 0 {
		return fmt.Errorf("introspect table %s: table has no columns", r.table)
	}

	schema := make(grid.SchemaMap, len(cols))
	for _, c := range cols {
		if t, ok := mapColumnType(c.DataType); ok {
			schema[c.Name] = t
		}
	}
	r.schema = schema
	return nil
}

// mapColumnType maps a declared SQL type to the semantic field type it is
// filtered as.
func mapColumnType(dataType string) (grid.FieldType, bool) {
	switch dataType {
	case "boolean":
		return grid.FieldBoolean, true
	case "smallint", "integer", "bigint":
		return grid.FieldInteger, true
	case "character varying", "character":
		return grid.FieldChar, true
	case "text":
		return grid.FieldText, true
	case "date":
		return grid.FieldDate, true
	case "timestamp without time zone", "timestamp with time zone":
		return grid.FieldDateTime, true
	default:
		return 0, false
	}
}
