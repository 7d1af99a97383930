package condition

import (
	"fmt"
	"reflect"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
)

// Kind is the state of a compiled condition.
type Kind int

const (
	SQL Kind = iota
	AlwaysTrue
	AlwaysFalse
)

const (
	trueSQL  = "1=1"
	falseSQL = "0=1"
)

// Expr is a compiled condition. Text is set only for Kind SQL.
type Expr struct {
	Kind Kind
	Text string
}

// Clause renders the expression as a WHERE clause. AlwaysTrue yields no
// clause at all, AlwaysFalse the canonical "WHERE 0=1".
func (e Expr) Clause() string {
	switch e.Kind {
	case AlwaysTrue:
		return ""
	case AlwaysFalse:
		return "WHERE " + falseSQL
	default:
		return "WHERE " + strings.TrimSpace(e.Text)
	}
}

// operand renders the expression for embedding inside a larger one.
func (e Expr) operand() string {
	switch e.Kind {
	case AlwaysTrue:
		return trueSQL
	case AlwaysFalse:
		return falseSQL
	default:
		return strings.TrimSpace(e.Text)
	}
}

func sqlExpr(text string) Expr { return Expr{Kind: SQL, Text: text} }

func group(text string) string { return " (" + text + ") " }

// Compile compiles c. Array-form variants (Fragment, Equals, Compare and
// Combine) compile to a space-padded parenthesized fragment, Fields to a bare
// AND list, Raw verbatim. A nil condition, an empty Fields list and
// Bool(false) compile to AlwaysFalse. Blank Raw text is rejected.
func Compile(c Condition) (Expr, error) {
	switch v := c.(type) {
	case nil:
		return Expr{Kind: AlwaysFalse}, nil
	case Raw:
		if strings.TrimSpace(string(v)) == "" {
			return Expr{}, fmt.Errorf("blank raw condition: %w", core.ErrInvalidCondition)
		}
		return sqlExpr(string(v)), nil
	case Bool:
		if v {
			return Expr{Kind: AlwaysTrue}, nil
		}
		return Expr{Kind: AlwaysFalse}, nil
	case Fragment:
		return sqlExpr(group(string(v))), nil
	case Equals:
		return compileEquals(v)
	case Compare:
		return compileCompare(v)
	case Combine:
		return compileCombine(v)
	case Fields:
		return compileFields(v)
	default:
		return Expr{}, fmt.Errorf("unsupported condition %T: %w", c, core.ErrInvalidCondition)
	}
}

// CompileAny decodes v with Parse and compiles the result.
func CompileAny(v any) (Expr, error) {
	c, err := Parse(v)
	if err != nil {
		return Expr{}, err
	}
	return Compile(c)
}

func compileEquals(e Equals) (Expr, error) {
	if strings.TrimSpace(e.Field) == "" {
		return Expr{}, fmt.Errorf("equality without field: %w", core.ErrInvalidCondition)
	}
	val, err := value(e.Value)
	if err != nil {
		return Expr{}, err
	}
	return sqlExpr(group(mysql.QuoteIdentifier(e.Field) + "=" + val)), nil
}

func compileCompare(c Compare) (Expr, error) {
	if strings.TrimSpace(c.Field) == "" {
		return Expr{}, fmt.Errorf("comparison without field: %w", core.ErrInvalidCondition)
	}
	if strings.TrimSpace(c.Op) == "" {
		return Expr{}, fmt.Errorf("comparison on %q without operator: %w", c.Field, core.ErrInvalidCondition)
	}
	val, err := value(c.Value)
	if err != nil {
		return Expr{}, err
	}
	return sqlExpr(group(mysql.QuoteIdentifier(c.Field) + " " + c.Op + " " + val)), nil
}

func compileCombine(c Combine) (Expr, error) {
	switch c.Op {
	case OpAnd, OpOr:
		if len(c.Terms) == 0 {
			return Expr{}, fmt.Errorf("%s without operands: %w", c.Op, core.ErrInvalidCondition)
		}
		parts := make([]string, 0, len(c.Terms))
		for _, t := range c.Terms {
			s, err := operand(t)
			if err != nil {
				return Expr{}, err
			}
			parts = append(parts, s)
		}
		return sqlExpr(group(strings.Join(parts, " "+string(c.Op)+" "))), nil
	case OpNot:
		if len(c.Terms) != 1 {
			return Expr{}, fmt.Errorf("NOT takes exactly one operand, got %d: %w", len(c.Terms), core.ErrInvalidCondition)
		}
		s, err := operand(c.Terms[0])
		if err != nil {
			return Expr{}, err
		}
		return sqlExpr(group("NOT " + s)), nil
	default:
		return Expr{}, fmt.Errorf("unknown combinator %q: %w", c.Op, core.ErrInvalidCondition)
	}
}

func compileFields(f Fields) (Expr, error) {
	if len(f) == 0 {
		return Expr{Kind: AlwaysFalse}, nil
	}
	parts := make([]string, 0, len(f))
	for _, p := range f {
		if strings.TrimSpace(p.Name) == "" {
			return Expr{}, fmt.Errorf("mapping with empty field name: %w", core.ErrInvalidCondition)
		}
		lit, err := literal(p.Value)
		if err != nil {
			return Expr{}, fmt.Errorf("field %q: %w", p.Name, err)
		}
		parts = append(parts, mysql.QuoteIdentifier(p.Name)+"="+lit)
	}
	return sqlExpr(strings.Join(parts, " AND ")), nil
}

// operand compiles a nested term. Terms that are not self-delimiting are
// parenthesized so operator precedence cannot leak across them.
func operand(c Condition) (string, error) {
	e, err := Compile(c)
	if err != nil {
		return "", err
	}
	s := e.operand()
	switch v := c.(type) {
	case Raw:
		return "(" + s + ")", nil
	case Fields:
		if len(v) > 1 {
			return "(" + s + ")", nil
		}
	}
	return s, nil
}

// value renders the right-hand side of a comparison. Conditions compile as
// sub-expressions, lists become parenthesized literal lists.
func value(v any) (string, error) {
	if c, ok := v.(Condition); ok {
		return operand(c)
	}
	lit, err := literal(v)
	if err != nil {
		return "", err
	}
	if isList(v) {
		return "(" + lit + ")", nil
	}
	return lit, nil
}

func literal(v any) (string, error) {
	s, err := mysql.Escape(v)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, core.ErrInvalidCondition)
	}
	return s, nil
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		return rv.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}
