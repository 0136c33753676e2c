package grid

// Schema resolves a field name to its declared semantic type. Implementations
// are read-only; the engine never mutates them.
type Schema interface {
	FieldType(name string) (FieldType, bool)
}

// SchemaMap is a static Schema backed by a map.
type SchemaMap map[string]FieldType

// FieldType implements Schema.
func (m SchemaMap) FieldType(name string) (FieldType, bool) {
	t, ok := m[name]
	return t, ok
}

// CustomField overrides resolution for one externally-visible field name:
// a semantic type and, optionally, the physical column it maps to.
type CustomField struct {
	Type   FieldType
	Column string
}

// CustomFields is an immutable override table consulted before schema
// introspection. A custom entry always wins over the schema's canonical
// resolution for the same name.
type CustomFields map[string]CustomField
