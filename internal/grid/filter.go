package grid

import (
	"fmt"
	"strings"
	"time"

	"github.com/cybernet-io/leadgrid/internal/db"
	"github.com/cybernet-io/leadgrid/internal/domain"
)

// fieldFilter is one variant of the filter family, specialized per semantic
// field type. A variant knows how to cast raw values for its type, resolve
// operator spellings, pick the column (possibly a derived annotation) the
// predicate runs against, and translate one normalized operator into a
// narrowing of the query.
type fieldFilter interface {
	// cast converts a raw value (element-wise for sequences) into the
	// variant's typed form.
	cast(raw any, format string) (any, error)
	// normalize is an identity hook for type-specific canonicalization of
	// already-cast values.
	normalize(value any) any
	// resolveOperator maps a raw operator spelling to a normalized Op.
	resolveOperator(raw string) (Op, error)
	// target resolves the field to the column key predicates run against,
	// registering a derived-column annotation when the variant needs one.
	target(q *db.Query, field string) string
	// apply executes exactly one operator handler against the query.
	apply(q *db.Query, key string, op Op, value any) error
}

// filterFor returns the variant for a resolved field type. An unknown type
// here is a programming error: resolution already validated the field.
func filterFor(t FieldType) (fieldFilter, error) {
	switch t {
	case FieldBoolean:
		return boolFilter{}, nil
	case FieldChar, FieldText:
		return textFilter{}, nil
	case FieldInteger:
		return intFilter{}, nil
	case FieldDate:
		return dateFilter{castType: "DATE", prefix: "day_", truncate: true}, nil
	case FieldDateTime:
		return dateFilter{castType: "TIMESTAMP", prefix: "ts_"}, nil
	default:
		return nil, fmt.Errorf("no filter variant registered for field type %q", t)
	}
}

// baseFilter supplies the behavior shared by every variant: identity
// normalization, direct column targeting, and the common operator handlers.
type baseFilter struct{}

func (baseFilter) normalize(v any) any { return v }

func (baseFilter) target(_ *db.Query, field string) string { return field }

// applyCommon handles the operators every variant supports. Exact matching,
// exclusion, set membership, ordering comparisons, and null checks.
func applyCommon(q *db.Query, col string, op Op, value any) error {
	switch op {
	case OpEq:
		q.Filter(col+" = ?", value)
	case OpNot:
		q.Exclude(col+" = ?", value)
	case OpIn:
		vals := asList(value)
		if len(vals) == 0 {
			// An empty set matches no rows; IN () is not valid SQL.
			q.Filter("FALSE")
			break
		}
		q.Filter(col+" IN (?)", vals)
	case OpGT:
		q.Filter(col+" > ?", value)
	case OpGTE:
		q.Filter(col+" >= ?", value)
	case OpLT:
		q.Filter(col+" < ?", value)
	case OpLTE:
		q.Filter(col+" <= ?", value)
	case OpIsEmpty:
		q.Filter(col + " IS NULL")
	case OpIsNotEmpty:
		q.Exclude(col + " IS NULL")
	default:
		return fmt.Errorf("%w: operator %q is not supported here", domain.ErrUnsupportedFilter, op)
	}
	return nil
}

// boolFilter filters boolean fields. No operator overrides beyond the
// common set.
type boolFilter struct{ baseFilter }

func (boolFilter) cast(raw any, _ string) (any, error) {
	return castEach(raw, func(v any) (any, error) { return ToBool(v) })
}

func (boolFilter) resolveOperator(raw string) (Op, error) {
	return resolveOp(nil, raw)
}

func (boolFilter) apply(q *db.Query, key string, op Op, value any) error {
	return applyCommon(q, q.Column(key), op, value)
}

// intFilter filters integer fields.
type intFilter struct{ baseFilter }

func (intFilter) cast(raw any, _ string) (any, error) {
	return castEach(raw, func(v any) (any, error) { return ToInt(v) })
}

func (intFilter) resolveOperator(raw string) (Op, error) {
	return resolveOp(nil, raw)
}

func (intFilter) apply(q *db.Query, key string, op Op, value any) error {
	return applyCommon(q, q.Column(key), op, value)
}

// textFilter filters character and text fields. Equality, exclusion, set
// membership, and the substring family are case-insensitive; empty checks
// treat an empty string like NULL.
type textFilter struct{ baseFilter }

func (textFilter) cast(raw any, _ string) (any, error) {
	return castEach(raw, func(v any) (any, error) { return fmt.Sprint(v), nil })
}

func (textFilter) resolveOperator(raw string) (Op, error) {
	return resolveOp(textAliases, raw)
}

func (f textFilter) apply(q *db.Query, key string, op Op, value any) error {
	col := q.Column(key)
	switch op {
	case OpEq:
		q.Filter("LOWER("+col+") = LOWER(?)", value)
	case OpNot:
		q.Exclude("LOWER("+col+") = LOWER(?)", value)
	case OpIn:
		vals := asList(value)
		if len(vals) == 0 {
			q.Filter("FALSE")
			break
		}
		lowered := make([]any, len(vals))
		for i, v := range vals {
			lowered[i] = strings.ToLower(fmt.Sprint(v))
		}
		lkey := "lower_" + key
		q.Annotate(lkey, "LOWER("+col+")")
		q.Filter(q.Column(lkey)+" IN (?)", lowered)
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		return f.applyPattern(q, col, op, value)
	case OpIsEmpty:
		q.Filter("(" + col + " IS NULL OR " + col + " = '')")
	case OpIsNotEmpty:
		q.Exclude(col + " IS NULL").Exclude(col + " = ''")
	default:
		return applyCommon(q, col, op, value)
	}
	return nil
}

func (textFilter) applyPattern(q *db.Query, col string, op Op, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: operator %q requires a single string value",
			domain.ErrUnsupportedFilter, op)
	}
	esc := db.EscapeLike(s)
	switch op {
	case OpContains:
		q.Filter(col+" ILIKE ?", "%"+esc+"%")
	case OpNotContains:
		q.Exclude(col+" ILIKE ?", "%"+esc+"%")
	case OpStartsWith:
		q.Filter(col+" ILIKE ?", esc+"%")
	case OpEndsWith:
		q.Filter(col+" ILIKE ?", "%"+esc)
	}
	return nil
}

// dateFilter filters date and date-time fields. Comparisons never run
// against the stored column directly: the column is cast to the variant's
// granularity through a per-field annotation, so stored precision and
// timezone representation cannot skew matches.
type dateFilter struct {
	baseFilter
	castType string
	prefix   string
	truncate bool
}

func (f dateFilter) cast(raw any, format string) (any, error) {
	return castEach(raw, func(v any) (any, error) {
		t, err := ToTime(v, format)
		if err != nil {
			return nil, err
		}
		if f.truncate {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
		return t, nil
	})
}

func (dateFilter) resolveOperator(raw string) (Op, error) {
	return resolveOp(dateAliases, raw)
}

func (f dateFilter) target(q *db.Query, field string) string {
	key := f.prefix + field
	q.Annotate(key, "CAST("+q.Column(field)+" AS "+f.castType+")")
	return key
}

func (f dateFilter) apply(q *db.Query, key string, op Op, value any) error {
	return applyCommon(q, q.Column(key), op, value)
}
