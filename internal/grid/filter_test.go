package grid

import (
	"strings"
	"testing"
	"time"
)

func applyOne(t *testing.T, dsc Descriptor) (string, []any) {
	t.Helper()
	d := NewDispatcher(testSchema(), testCustomFields())
	q, err := d.Apply(leadsQuery(), dsc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return mustSQL(t, q)
}

func TestTextFilter_EqualsCaseInsensitive(t *testing.T) {
	sql, args := applyOne(t, Descriptor{Field: "first_name", Operator: "equals", Value: "Bob"})
	if !strings.Contains(sql, `LOWER("first_name") = LOWER($1)`) {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "Bob" {
		t.Errorf("args = %v", args)
	}
}

func TestTextFilter_NotEquals(t *testing.T) {
	sql, _ := applyOne(t, Descriptor{Field: "first_name", Operator: "doesNotEqual", Value: "Bob"})
	if !strings.Contains(sql, `NOT (LOWER("first_name") = LOWER($1))`) {
		t.Errorf("sql = %q", sql)
	}
}

func TestTextFilter_InSetLowersMembers(t *testing.T) {
	sql, args := applyOne(t, Descriptor{
		Field: "first_name", Operator: "isAnyOf", Value: []any{"Bob", "ALICE"},
	})
	if !strings.Contains(sql, `LOWER("first_name") IN ($1, $2)`) {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != "bob" || args[1] != "alice" {
		t.Errorf("args = %v", args)
	}
}

func TestTextFilter_InSetScalarEqualsSingletonList(t *testing.T) {
	scalarSQL, scalarArgs := applyOne(t, Descriptor{Field: "email", Operator: "in", Value: "x@y.z"})
	listSQL, listArgs := applyOne(t, Descriptor{Field: "email", Operator: "in", Value: []any{"x@y.z"}})
	if scalarSQL != listSQL {
		t.Errorf("scalar sql %q != list sql %q", scalarSQL, listSQL)
	}
	if len(scalarArgs) != 1 || len(listArgs) != 1 || scalarArgs[0] != listArgs[0] {
		t.Errorf("args mismatch: %v vs %v", scalarArgs, listArgs)
	}
}

func TestTextFilter_PatternOperators(t *testing.T) {
	tests := []struct {
		operator string
		wantSQL  string
		wantArg  string
	}{
		{"contains", `"notes" ILIKE $1`, "%vip%"},
		{"doesNotContain", `NOT ("notes" ILIKE $1)`, "%vip%"},
		{"startsWith", `"notes" ILIKE $1`, "vip%"},
		{"endsWith", `"notes" ILIKE $1`, "%vip"},
	}
	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			sql, args := applyOne(t, Descriptor{Field: "notes", Operator: tt.operator, Value: "vip"})
			if !strings.Contains(sql, tt.wantSQL) {
				t.Errorf("sql = %q, want fragment %q", sql, tt.wantSQL)
			}
			if args[0] != tt.wantArg {
				t.Errorf("arg = %v, want %q", args[0], tt.wantArg)
			}
		})
	}
}

func TestTextFilter_ContainsEscapesWildcards(t *testing.T) {
	_, args := applyOne(t, Descriptor{Field: "notes", Operator: "contains", Value: "50%_off"})
	if args[0] != `%50\%\_off%` {
		t.Errorf("arg = %v", args[0])
	}
}

func TestTextFilter_EmptyChecks(t *testing.T) {
	sql, args := applyOne(t, Descriptor{Field: "email", Operator: "isEmpty"})
	if !strings.Contains(sql, `("email" IS NULL OR "email" = '')`) {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}

	sql, _ = applyOne(t, Descriptor{Field: "email", Operator: "isNotEmpty"})
	if !strings.Contains(sql, `NOT ("email" IS NULL) AND NOT ("email" = '')`) {
		t.Errorf("sql = %q", sql)
	}
}

func TestEmptyCheckSkipsCasting(t *testing.T) {
	// An uncastable value must not matter for empty checks.
	d := NewDispatcher(testSchema(), testCustomFields())
	for _, operator := range []string{"isEmpty", "isNotEmpty"} {
		if _, err := d.Apply(leadsQuery(), Descriptor{
			Field: "created_at", Operator: operator, Value: "not-a-date-at-all",
		}); err != nil {
			t.Errorf("%s: unexpected error: %v", operator, err)
		}
	}
}

func TestBoolFilter_Equals(t *testing.T) {
	sql, args := applyOne(t, Descriptor{Field: "is_active", Value: "true"})
	if !strings.Contains(sql, `("is_active" = $1)`) {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != true {
		t.Errorf("args = %v", args)
	}
}

func TestBoolFilter_CustomFieldRemap(t *testing.T) {
	// "status" remaps to the is_active column with boolean semantics.
	sql, args := applyOne(t, Descriptor{Field: "status", Value: "0"})
	if !strings.Contains(sql, `("is_active" = $1)`) {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != false {
		t.Errorf("args = %v", args)
	}
}

func TestIntFilter_Comparisons(t *testing.T) {
	tests := []struct {
		operator string
		fragment string
	}{
		{">", `"age" > $1`},
		{">=", `"age" >= $1`},
		{"<", `"age" < $1`},
		{"<=", `"age" <= $1`},
	}
	for _, tt := range tests {
		sql, args := applyOne(t, Descriptor{Field: "age", Operator: tt.operator, Value: "18"})
		if !strings.Contains(sql, tt.fragment) {
			t.Errorf("%s: sql = %q", tt.operator, sql)
		}
		if args[0] != int64(18) {
			t.Errorf("%s: args = %v", tt.operator, args)
		}
	}
}

func TestIntFilter_InSet(t *testing.T) {
	sql, args := applyOne(t, Descriptor{
		Field: "age", Operator: "isAnyOf", Value: []any{float64(20), "30"},
	})
	if !strings.Contains(sql, `"age" IN ($1, $2)`) {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != int64(20) || args[1] != int64(30) {
		t.Errorf("args = %v", args)
	}
}

func TestIntFilter_InSetEmptyMatchesNothing(t *testing.T) {
	sql, args := applyOne(t, Descriptor{
		Field: "age", Operator: "isAnyOf", Value: []any{},
	})
	if !strings.Contains(sql, `WHERE (FALSE)`) {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestTextFilter_InSetEmptyMatchesNothing(t *testing.T) {
	sql, args := applyOne(t, Descriptor{
		Field: "first_name", Operator: "isAnyOf", Value: []any{},
	})
	if !strings.Contains(sql, `WHERE (FALSE)`) {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestDateFilter_AnnotatesCastColumn(t *testing.T) {
	sql, args := applyOne(t, Descriptor{
		Field: "created", Value: "2024-03-05T00:00:00.000000Z",
	})
	if !strings.Contains(sql, `CAST("created_at" AS DATE) = $1`) {
		t.Errorf("sql = %q", sql)
	}
	got, ok := args[0].(time.Time)
	if !ok {
		t.Fatalf("arg = %#v", args[0])
	}
	// Date variant truncates to midnight so sub-day precision cannot skew.
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("arg = %v, want %v", got, want)
	}
}

func TestDateFilter_SubDayPrecisionIgnored(t *testing.T) {
	sqlA, argsA := applyOne(t, Descriptor{Field: "created", Value: "2024-03-05T23:59:00.000000Z"})
	sqlB, argsB := applyOne(t, Descriptor{Field: "created", Value: "2024-03-05T00:00:00.000000Z"})
	if sqlA != sqlB {
		t.Errorf("sql differs: %q vs %q", sqlA, sqlB)
	}
	if !argsA[0].(time.Time).Equal(argsB[0].(time.Time)) {
		t.Errorf("args differ: %v vs %v", argsA[0], argsB[0])
	}
}

func TestDateTimeFilter_WordAliases(t *testing.T) {
	tests := []struct {
		operator string
		fragment string
	}{
		{"after", `CAST("created_at" AS TIMESTAMP) > $1`},
		{"onOrAfter", `CAST("created_at" AS TIMESTAMP) >= $1`},
		{"before", `CAST("created_at" AS TIMESTAMP) < $1`},
		{"onOrBefore", `CAST("created_at" AS TIMESTAMP) <= $1`},
	}
	for _, tt := range tests {
		sql, _ := applyOne(t, Descriptor{
			Field: "created_at", Operator: tt.operator, Value: "2024-03-05T10:00:00.000000Z",
		})
		if !strings.Contains(sql, tt.fragment) {
			t.Errorf("%s: sql = %q", tt.operator, sql)
		}
	}
}

func TestDateFilter_FormatOption(t *testing.T) {
	_, args := applyOne(t, Descriptor{
		Field:   "created",
		Value:   "05/03/2024",
		Options: map[string]any{"format": "%d/%m/%Y"},
	})
	got := args[0].(time.Time)
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 5 {
		t.Errorf("arg = %v", got)
	}
}

func TestPatternOperatorRejectedForNonText(t *testing.T) {
	d := NewDispatcher(testSchema(), testCustomFields())
	_, err := d.Apply(leadsQuery(), Descriptor{Field: "age", Operator: "contains", Value: "1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unsupported operator") {
		t.Errorf("error = %q", err)
	}
}
