package mysql

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"sqlpipe/internal/core"
)

// RawSQL is a literal that is emitted verbatim, e.g. RawSQL("NOW()").
type RawSQL string

const timeLayout = "2006-01-02 15:04:05.000"

// QuoteIdentifier backtick-quotes an identifier. Dot-qualified names are
// quoted per segment and embedded backticks are doubled.
func QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

// QuoteString single-quotes a string literal using backslash escapes.
func QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\x00':
			b.WriteString(`\0`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1A':
			b.WriteString(`\Z`)
		case '"':
			b.WriteString(`\"`)
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Literal renders v as a SQL literal. It is Escape for values already known
// to be renderable; anything Escape rejects renders as NULL.
func Literal(v any) string {
	s, err := Escape(v)
	if err != nil {
		return "NULL"
	}
	return s
}

// Escape renders v as a SQL literal.
//
// Slices render as comma-separated lists, nested slices as parenthesized
// groups, and string-keyed maps as "`k` = v" assignment lists. Values with no
// SQL form (structs without a String method, channels, functions, maps with
// non-string keys, NaN and infinities) return an error wrapping
// core.ErrInvalidArgument.
func Escape(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case RawSQL:
		return string(x), nil
	case string:
		return QuoteString(x), nil
	case []byte:
		if x == nil {
			return "NULL", nil
		}
		return "X'" + hex.EncodeToString(x) + "'", nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return formatFloat(x, 64)
	case time.Time:
		return QuoteString(x.Format(timeLayout)), nil
	case *time.Time:
		if x == nil {
			return "NULL", nil
		}
		return QuoteString(x.Format(timeLayout)), nil
	case driver.Valuer:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "NULL", nil
		}
		val, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("value of %T: %v: %w", v, err, core.ErrInvalidArgument)
		}
		return Escape(val)
	}
	return reflectLiteral(reflect.ValueOf(v))
}

func reflectLiteral(rv reflect.Value) (string, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "NULL", nil
		}
		return Escape(rv.Elem().Interface())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.String:
		return QuoteString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "NULL", nil
		}
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return Escape(rv.Bytes())
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			for elem.Kind() == reflect.Interface && !elem.IsNil() {
				elem = elem.Elem()
			}
			if isList(elem) {
				s, err := reflectLiteral(elem)
				if err != nil {
					return "", err
				}
				parts = append(parts, "("+s+")")
				continue
			}
			s, err := Escape(elem.Interface())
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			val := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			s, err := Escape(val.Interface())
			if err != nil {
				return "", err
			}
			parts = append(parts, QuoteIdentifier(k)+" = "+s)
		}
		return strings.Join(parts, ", "), nil
	}
	if rv.IsValid() && rv.CanInterface() {
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return QuoteString(s.String()), nil
		}
	}
	return "", fmt.Errorf("no SQL literal for %s: %w", rv.Type(), core.ErrInvalidArgument)
}

// isList reports whether v renders as a list rather than a scalar.
func isList(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("no SQL literal for %v: %w", f, core.ErrInvalidArgument)
	}
	return strconv.FormatFloat(f, 'f', -1, bits), nil
}
