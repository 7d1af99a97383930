package condition

import (
	"fmt"
	"slices"
	"strings"

	"sqlpipe/internal/core"
)

// Parse decodes the dynamic condition form (typically unmarshaled JSON)
// into a Condition. Mapping keys are emitted in sorted order.
func Parse(v any) (Condition, error) {
	switch w := v.(type) {
	case nil:
		return Bool(false), nil
	case Condition:
		return w, nil
	case string:
		return Raw(w), nil
	case bool:
		return Bool(w), nil
	case map[string]any:
		return parseMap(w), nil
	case []any:
		return parseArray(w)
	case []string:
		items := make([]any, len(w))
		for i, s := range w {
			items[i] = s
		}
		return parseArray(items)
	default:
		return nil, fmt.Errorf("unsupported condition type %T: %w", v, core.ErrInvalidCondition)
	}
}

func parseMap(m map[string]any) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fields := make(Fields, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Name: k, Value: m[k]})
	}
	return fields
}

func parseArray(w []any) (Condition, error) {
	if len(w) == 0 {
		return Bool(false), nil
	}
	if head, ok := w[0].(string); ok && strings.HasPrefix(head, "$") {
		return parseCombinator(head, w[1:])
	}

	switch len(w) {
	case 1:
		s, ok := w[0].(string)
		if !ok {
			return nil, fmt.Errorf("single-element condition must be a string, got %T: %w", w[0], core.ErrInvalidCondition)
		}
		return Fragment(s), nil
	case 2:
		field, err := fieldName(w[0])
		if err != nil {
			return nil, err
		}
		val, err := parseValue(w[1], false)
		if err != nil {
			return nil, err
		}
		return Equals{Field: field, Value: val}, nil
	case 3:
		field, err := fieldName(w[0])
		if err != nil {
			return nil, err
		}
		op, ok := w[1].(string)
		if !ok {
			return nil, fmt.Errorf("operator must be a string, got %T: %w", w[1], core.ErrInvalidCondition)
		}
		val, err := parseValue(w[2], isListOperator(op))
		if err != nil {
			return nil, err
		}
		return Compare{Field: field, Op: op, Value: val}, nil
	default:
		return nil, fmt.Errorf("condition array of length %d: %w", len(w), core.ErrInvalidCondition)
	}
}

func parseCombinator(head string, rest []any) (Condition, error) {
	var op Combinator
	switch head {
	case "$and":
		op = OpAnd
	case "$or":
		op = OpOr
	case "$not":
		op = OpNot
	default:
		return nil, fmt.Errorf("unknown combinator %q: %w", head, core.ErrInvalidCondition)
	}

	if op == OpNot && len(rest) != 1 {
		return nil, fmt.Errorf("$not takes exactly one operand, got %d: %w", len(rest), core.ErrInvalidCondition)
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("%s without operands: %w", head, core.ErrInvalidCondition)
	}

	terms := make([]Condition, 0, len(rest))
	for _, r := range rest {
		t, err := Parse(r)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return Combine{Op: op, Terms: terms}, nil
}

// parseValue keeps scalars as literals and decodes nested arrays as
// sub-conditions, unless the operator takes a value list.
func parseValue(v any, list bool) (any, error) {
	w, ok := v.([]any)
	if !ok || list {
		return v, nil
	}
	return parseArray(w)
}

func fieldName(v any) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("field name must be a non-empty string, got %v: %w", v, core.ErrInvalidCondition)
	}
	return s, nil
}

func isListOperator(op string) bool {
	switch strings.ToUpper(strings.Join(strings.Fields(op), " ")) {
	case "IN", "NOT IN":
		return true
	default:
		return false
	}
}
