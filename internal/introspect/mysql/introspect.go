// Package mysql reads live table structure with SHOW FIELDS and SHOW INDEXES.
package mysql

import (
	"fmt"
	"strings"
	"unicode"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect"
	"sqlpipe/internal/introspect"
)

func init() {
	introspect.Register(dialect.MySQL, New)
}

type introspecter struct{}

func New() introspect.Introspecter {
	return &introspecter{}
}

// normalizeRow rekeys a SHOW row with convert applied to every column name.
func normalizeRow(row core.Row, convert func(string) string) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[convert(k)] = v
	}
	return out
}

// camelName turns Key_name into keyName and Non_unique into nonUnique.
func camelName(n string) string {
	parts := strings.Split(n, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		r := []rune(strings.ToLower(p))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	s := []rune(b.String())
	if len(s) == 0 {
		return ""
	}
	s[0] = unicode.ToLower(s[0])
	return string(s)
}

// text renders a driver value as a string. NULL becomes "".
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
