package grid

import (
	"fmt"

	"github.com/cybernet-io/leadgrid/internal/db"
	"github.com/cybernet-io/leadgrid/internal/domain"
)

// Dispatcher resolves a descriptor's field to its semantic type and physical
// column, picks the matching filter variant, and applies one descriptor to
// a query. It holds only read-only configuration and is safe for concurrent
// use.
type Dispatcher struct {
	schema Schema
	custom CustomFields
}

// NewDispatcher creates a dispatcher over an injected schema description and
// an immutable custom-field override table.
func NewDispatcher(schema Schema, custom CustomFields) *Dispatcher {
	return &Dispatcher{schema: schema, custom: custom}
}

// Apply narrows q by a single filter descriptor and returns it.
func (d *Dispatcher) Apply(q *db.Query, dsc Descriptor) (*db.Query, error) {
	if dsc.Field == "" {
		return nil, fmt.Errorf("%w: filter field is required", domain.ErrUnsupportedFilter)
	}

	fieldType, column, err := d.resolve(dsc.Field)
	if err != nil {
		return nil, err
	}

	f, err := filterFor(fieldType)
	if err != nil {
		return nil, err
	}

	op, err := f.resolveOperator(dsc.Operator)
	if err != nil {
		return nil, err
	}

	// Empty checks ignore the value entirely; casting must not run for them.
	value := dsc.Value
	if op != OpIsEmpty && op != OpIsNotEmpty {
		value, err = f.cast(value, dsc.Format())
		if err != nil {
			return nil, err
		}
		value = f.normalize(value)
	}

	key := f.target(q, column)
	if err := f.apply(q, key, op, value); err != nil {
		return nil, err
	}
	return q, nil
}

// resolve maps an externally-visible field name to its semantic type and
// physical column. The custom table wins over schema introspection; a name
// known to neither is an unknown-field error, and the raw schema lookup
// failure never leaks past this point.
func (d *Dispatcher) resolve(field string) (FieldType, string, error) {
	if cf, ok := d.custom[field]; ok {
		column := cf.Column
		if column == "" {
			column = field
		}
		return cf.Type, column, nil
	}
	if t, ok := d.schema.FieldType(field); ok {
		return t, field, nil
	}
	return 0, "", fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
}
