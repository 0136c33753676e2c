package grid

import (
	"fmt"

	"github.com/cybernet-io/leadgrid/internal/domain"
)

// Op is a normalized filter operator after alias resolution.
type Op string

const (
	OpEq          Op = "eq"
	OpNot         Op = "not"
	OpIn          Op = "in"
	OpGT          Op = "gt"
	OpGTE         Op = "gte"
	OpLT          Op = "lt"
	OpLTE         Op = "lte"
	OpIsEmpty     Op = "isEmpty"
	OpIsNotEmpty  Op = "isNotEmpty"
	OpContains    Op = "contains"
	OpNotContains Op = "doesNotContain"
	OpStartsWith  Op = "startsWith"
	OpEndsWith    Op = "endsWith"
)

// defaultAliases maps raw operator spellings shared by every field type to
// normalized operators. A missing operator defaults to equality.
var defaultAliases = map[string]Op{
	"":             OpEq,
	"=":            OpEq,
	"eq":           OpEq,
	"is":           OpEq,
	"equals":       OpEq,
	"!=":           OpNot,
	"<>":           OpNot,
	"neq":          OpNot,
	"not":          OpNot,
	"doesNotEqual": OpNot,
	"in":           OpIn,
	"isAnyOf":      OpIn,
	">":            OpGT,
	"gt":           OpGT,
	">=":           OpGTE,
	"gte":          OpGTE,
	"<":            OpLT,
	"lt":           OpLT,
	"<=":           OpLTE,
	"lte":          OpLTE,
	"isEmpty":      OpIsEmpty,
	"isNotEmpty":   OpIsNotEmpty,
}

// textAliases are spellings recognized only by character/text filters.
var textAliases = map[string]Op{
	"contains":       OpContains,
	"doesNotContain": OpNotContains,
	"startsWith":     OpStartsWith,
	"endsWith":       OpEndsWith,
}

// dateAliases are spellings recognized only by date/date-time filters.
var dateAliases = map[string]Op{
	"after":      OpGT,
	"onOrAfter":  OpGTE,
	"before":     OpLT,
	"onOrBefore": OpLTE,
}

// resolveOp looks up an operator spelling, consulting the variant's override
// table before the shared default table. An unrecognized spelling is a hard
// error rather than the original UI's silent fall-through to equality.
func resolveOp(overrides map[string]Op, raw string) (Op, error) {
	if op, ok := overrides[raw]; ok {
		return op, nil
	}
	if op, ok := defaultAliases[raw]; ok {
		return op, nil
	}
	return "", fmt.Errorf("%w: unsupported operator %q", domain.ErrUnsupportedFilter, raw)
}
