package query

import (
	"fmt"
	"slices"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
)

// Assignment sets one column. Value may be an Incr.
type Assignment struct {
	Column string
	Value  any
}

// Incr increments a column: `col`=`col`+(Delta).
type Incr struct {
	Delta any
}

// SetClause renders the SET list of an UPDATE.
//
// changes is one of:
//   - a string, used verbatim (trimmed);
//   - []Assignment, rendered in order;
//   - map[string]any, rendered in sorted key order.
//
// A value may be an Incr or the dynamic operator form []any{"$incr", delta}.
// Any other "$" operator is rejected.
func SetClause(changes any) (string, error) {
	var list []Assignment
	switch c := changes.(type) {
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return "", fmt.Errorf("empty SET clause: %w", core.ErrInvalidArgument)
		}
		return s, nil
	case []Assignment:
		list = c
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			list = append(list, Assignment{Column: k, Value: c[k]})
		}
	default:
		return "", fmt.Errorf("changes must be a string, a map or assignments, got %T: %w", changes, core.ErrInvalidArgument)
	}

	if len(list) == 0 {
		return "", fmt.Errorf("no columns to update: %w", core.ErrInvalidArgument)
	}
	parts := make([]string, 0, len(list))
	for _, a := range list {
		s, err := assignment(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

func assignment(a Assignment) (string, error) {
	if strings.TrimSpace(a.Column) == "" {
		return "", fmt.Errorf("assignment without column: %w", core.ErrInvalidArgument)
	}
	col := mysql.QuoteIdentifier(a.Column)

	value, incr := a.Value, false
	switch v := a.Value.(type) {
	case Incr:
		value, incr = v.Delta, true
	case []any:
		if op, ok := operator(v); ok {
			if op != "$incr" || len(v) != 2 {
				return "", fmt.Errorf("unsupported operator %q for column %q: %w", op, a.Column, core.ErrInvalidArgument)
			}
			value, incr = v[1], true
		}
	}

	lit, err := mysql.Escape(value)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", a.Column, err)
	}
	if incr {
		return col + "=" + col + "+(" + lit + ")", nil
	}
	return col + "=" + lit, nil
}

func operator(v []any) (string, bool) {
	if len(v) == 0 {
		return "", false
	}
	s, ok := v[0].(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return "", false
	}
	return s, true
}
