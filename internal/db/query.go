package db

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Query composes a single-table SELECT lazily. It supports AND-narrowing
// (Filter), AND-NOT narrowing (Exclude), and derived-column annotations
// that predicates can reference by name. Nothing is executed until a
// repository renders it with SQL() and runs the result.
type Query struct {
	table       string
	columns     []string
	annotations []annotation
	conds       []cond
	orderBy     []string
	limit       int
	offset      int
}

type annotation struct {
	name string
	expr string
}

type cond struct {
	expr    string
	args    []any
	negated bool
}

// NewQuery starts a query over table selecting the given columns.
// An empty column list selects *.
func NewQuery(table string, columns ...string) *Query {
	return &Query{table: table, columns: columns}
}

// Table returns the table name the query selects from.
func (q *Query) Table() string { return q.table }

// Filter narrows the query with an AND predicate. The expression uses ?
// placeholders; slice arguments are expanded at render time.
func (q *Query) Filter(expr string, args ...any) *Query {
	q.conds = append(q.conds, cond{expr: expr, args: args})
	return q
}

// Exclude narrows the query with an AND NOT predicate.
func (q *Query) Exclude(expr string, args ...any) *Query {
	q.conds = append(q.conds, cond{expr: expr, args: args, negated: true})
	return q
}

// Annotate attaches a derived column named name, computed by the SQL
// expression expr. Predicates referencing name through Column resolve to
// the expression inline. Annotating an existing name replaces it.
func (q *Query) Annotate(name, expr string) *Query {
	for i := range q.annotations {
		if q.annotations[i].name == name {
			q.annotations[i].expr = expr
			return q
		}
	}
	q.annotations = append(q.annotations, annotation{name: name, expr: expr})
	return q
}

// HasAnnotation reports whether a derived column with this name exists.
func (q *Query) HasAnnotation(name string) bool {
	for _, a := range q.annotations {
		if a.name == name {
			return true
		}
	}
	return false
}

// Column resolves a field name to its SQL form: the annotation expression
// if one is registered under the name, otherwise the quoted identifier.
func (q *Query) Column(name string) string {
	for _, a := range q.annotations {
		if a.name == name {
			return a.expr
		}
	}
	return pq.QuoteIdentifier(name)
}

// OrderBy appends an ORDER BY term. The column must already be validated
// by the caller; it is quoted here.
func (q *Query) OrderBy(column string, desc bool) *Query {
	term := pq.QuoteIdentifier(column)
	if desc {
		term += " DESC"
	}
	q.orderBy = append(q.orderBy, term)
	return q
}

// Limit caps the number of returned rows. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n rows.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// SQL renders the query with $n placeholders and the bound argument list.
// Slice arguments inside IN predicates are expanded via sqlx.In.
func (q *Query) SQL() (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(q.columns) == 0 {
		sb.WriteString("*")
	} else {
		quoted := make([]string, len(q.columns))
		for i, c := range q.columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		sb.WriteString(strings.Join(quoted, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(pq.QuoteIdentifier(q.table))

	var args []any
	if len(q.conds) > 0 {
		parts := make([]string, len(q.conds))
		for i, c := range q.conds {
			if c.negated {
				parts[i] = "NOT (" + c.expr + ")"
			} else {
				parts[i] = "(" + c.expr + ")"
			}
			args = append(args, c.args...)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(q.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(q.orderBy, ", "))
	}
	if q.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.limit)
	}
	if q.offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.offset)
	}

	query, expanded, err := sqlx.In(sb.String(), args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand query args: %w", err)
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), expanded, nil
}

// String returns a debug representation of the composed query with
// unexpanded ? placeholders.
func (q *Query) String() string {
	s, _, err := q.SQL()
	if err != nil {
		return "!invalid query: " + err.Error()
	}
	return s
}

// EscapeLike escapes LIKE/ILIKE pattern metacharacters in a literal value
// so it matches itself rather than acting as a wildcard.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
