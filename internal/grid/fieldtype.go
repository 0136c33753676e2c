// Package grid implements the declarative grid-filter engine: it turns
// client-supplied {field, operator, value} descriptors into a composed
// predicate over a db.Query, resolving each field's semantic type, casting
// values, and translating operators into SQL narrowing.
package grid

// FieldType is the semantic category a field is filtered as, independent of
// its raw storage representation.
type FieldType int

const (
	FieldBoolean FieldType = iota + 1
	FieldChar
	FieldText
	FieldInteger
	FieldDate
	FieldDateTime
)

// ParseFieldType resolves a lowercase type name back to its FieldType.
func ParseFieldType(name string) (FieldType, bool) {
	switch name {
	case "boolean":
		return FieldBoolean, true
	case "character":
		return FieldChar, true
	case "text":
		return FieldText, true
	case "integer":
		return FieldInteger, true
	case "date":
		return FieldDate, true
	case "date-time":
		return FieldDateTime, true
	default:
		return 0, false
	}
}

// String returns the lowercase name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldBoolean:
		return "boolean"
	case FieldChar:
		return "character"
	case FieldText:
		return "text"
	case FieldInteger:
		return "integer"
	case FieldDate:
		return "date"
	case FieldDateTime:
		return "date-time"
	default:
		return "unknown"
	}
}
