package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cybernet-io/leadgrid/internal/domain"
)

// DefaultTimeFormat is the strptime-style format applied to date values when
// a descriptor carries no format option. It matches the ISO-8601 form the
// grid UI sends.
const DefaultTimeFormat = "%Y-%m-%dT%H:%M:%S.%fZ"

// ToBool casts a raw value to a boolean. Native booleans pass through;
// anything else is lower-cased in string form and must be one of
// true/false/1/0.
func ToBool(raw any) (bool, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	switch strings.ToLower(fmt.Sprint(raw)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: value is not boolean", domain.ErrUnsupportedFilter)
	}
}

// ToInt casts a raw value to an int64. Strings parse as base-10; native
// integral numbers pass through; fractional numbers are rejected rather
// than truncated.
func ToInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: value is not a valid integer", domain.ErrUnsupportedFilter)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: value is not a valid integer", domain.ErrUnsupportedFilter)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: value is not a valid integer", domain.ErrUnsupportedFilter)
	}
}

// ToTime parses a raw string value with a strptime-style format.
func ToTime(raw any, format string) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf(
			"%w: value is not a valid date or has inappropriate format", domain.ErrUnsupportedFilter)
	}
	layout, err := timeLayout(format)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"%w: value is not a valid date or has inappropriate format", domain.ErrUnsupportedFilter)
	}
	return t, nil
}

// timeLayout translates a strptime-style format string into a Go layout.
// The wire format keeps the directive syntax the grid UI already sends.
func timeLayout(format string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", fmt.Errorf("%w: value is not a valid date or has inappropriate format",
				domain.ErrUnsupportedFilter)
		}
		var rep string
		switch format[i] {
		case 'Y':
			rep = "2006"
		case 'y':
			rep = "06"
		case 'm':
			rep = "01"
		case 'd':
			rep = "02"
		case 'H':
			rep = "15"
		case 'I':
			rep = "03"
		case 'M':
			rep = "04"
		case 'S':
			rep = "05"
		case 'f':
			rep = "999999"
		case 'p':
			rep = "PM"
		case 'z':
			rep = "-0700"
		case 'Z':
			rep = "MST"
		case '%':
			rep = "%"
		default:
			return "", fmt.Errorf("%w: value is not a valid date or has inappropriate format",
				domain.ErrUnsupportedFilter)
		}
		sb.WriteString(rep)
	}
	return sb.String(), nil
}

// asList normalizes a raw value into a slice of elements. Non-sequence
// input becomes a single-element slice.
func asList(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	default:
		return []any{raw}
	}
}

// isSequence reports whether a raw value arrived as a sequence.
func isSequence(raw any) bool {
	switch raw.(type) {
	case []any, []string, []float64, []int64:
		return true
	default:
		return false
	}
}

// castEach applies a scalar cast to a raw value, element-wise when the value
// is a sequence.
func castEach(raw any, cast func(any) (any, error)) (any, error) {
	if !isSequence(raw) {
		return cast(raw)
	}
	list := asList(raw)
	out := make([]any, len(list))
	for i, el := range list {
		v, err := cast(el)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
