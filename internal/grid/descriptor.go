package grid

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cybernet-io/leadgrid/internal/domain"
)

// Descriptor is one unit of user-requested narrowing: a field name, a raw
// value, an optional operator spelling (defaulting to equality), and any
// additional options the filter variant understands (commonly "format" for
// date parsing).
type Descriptor struct {
	Field    string
	Operator string
	Value    any
	Options  map[string]any
}

// UnmarshalJSON decodes the well-known keys and collects every other key
// into Options.
func (d *Descriptor) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decode filter descriptor: %w", err)
	}

	field, ok := m["field"].(string)
	if !ok || field == "" {
		return fmt.Errorf("%w: filter field is required", domain.ErrUnsupportedFilter)
	}
	d.Field = field
	delete(m, "field")

	if op, ok := m["operator"].(string); ok {
		d.Operator = op
	}
	delete(m, "operator")

	d.Value = m["value"]
	delete(m, "value")

	if len(m) > 0 {
		d.Options = m
	}
	return nil
}

// Format returns the descriptor's date format option, or the default.
func (d Descriptor) Format() string {
	if f, ok := d.Options["format"].(string); ok && f != "" {
		return f
	}
	return DefaultTimeFormat
}

// ParseDescriptors decodes an ordered JSON array of filter descriptors.
func ParseDescriptors(b []byte) ([]Descriptor, error) {
	var ds []Descriptor
	if err := json.Unmarshal(b, &ds); err != nil {
		if errors.Is(err, domain.ErrUnsupportedFilter) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: malformed filters payload", domain.ErrUnsupportedFilter)
	}
	return ds, nil
}
