// Package query renders the DML statements of the toolkit. Builders are
// pure: they take compiled conditions and return SQL text.
package query

import (
	"fmt"
	"slices"
	"strings"

	"sqlpipe/internal/condition"
	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
)

// SelectOptions controls the projection and the trailing clauses of a
// SELECT. Fields are quoted as identifiers; RawFields is used verbatim and
// wins when set. With neither, "*" is selected.
type SelectOptions struct {
	Fields    []string
	RawFields string
	Tail      string
}

// Select renders a SELECT statement.
func Select(table string, where condition.Expr, opts SelectOptions) string {
	return join("SELECT", projection(opts), "FROM", mysql.QuoteIdentifier(table), where.Clause(), opts.Tail)
}

// Count renders a SELECT COUNT(*) AS `c` statement.
func Count(table string, where condition.Expr) string {
	return Select(table, where, SelectOptions{RawFields: "COUNT(*) AS `c`"})
}

// Delete renders a DELETE statement.
func Delete(table string, where condition.Expr, tail string) string {
	return join("DELETE FROM", mysql.QuoteIdentifier(table), where.Clause(), tail)
}

// HasLimit reports whether a tail already carries a LIMIT clause.
func HasLimit(tail string) bool {
	return strings.Contains(strings.ToLower(tail), "limit ")
}

// WithLimitOne appends LIMIT 1 to tail unless it already has a limit.
func WithLimitOne(tail string) string {
	if HasLimit(tail) {
		return tail
	}
	return strings.TrimSpace(tail + " LIMIT 1")
}

// Insert renders a multi-row INSERT. The column list is the sorted union of
// all row keys; a row missing a column gets DEFAULT for it.
func Insert(table string, rows []map[string]any) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("insert into %q: no rows: %w", table, core.ErrInvalidArgument)
	}

	seen := make(map[string]bool)
	var fields []string
	for i, row := range rows {
		if len(row) == 0 {
			return "", fmt.Errorf("insert into %q: row %d is empty: %w", table, i, core.ErrInvalidArgument)
		}
		for k := range row {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	slices.Sort(fields)

	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = mysql.QuoteIdentifier(f)
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(fields))
		for j, f := range fields {
			v, ok := row[f]
			if !ok {
				line[j] = "DEFAULT"
				continue
			}
			lit, err := mysql.Escape(v)
			if err != nil {
				return "", fmt.Errorf("insert into %q: row %d column %q: %w", table, i, f, err)
			}
			line[j] = lit
		}
		values[i] = "(" + strings.Join(line, ", ") + ")"
	}

	return "INSERT INTO " + mysql.QuoteIdentifier(table) + "(" + strings.Join(cols, ", ") + ") VALUES\n" +
		strings.Join(values, ",\n"), nil
}

// Update renders an UPDATE statement. See SetClause for the accepted
// change forms.
func Update(table string, where condition.Expr, changes any, tail string) (string, error) {
	set, err := SetClause(changes)
	if err != nil {
		return "", fmt.Errorf("update %q: %w", table, err)
	}
	return join("UPDATE", mysql.QuoteIdentifier(table), "SET", set, where.Clause(), tail), nil
}

func projection(opts SelectOptions) string {
	if raw := strings.TrimSpace(opts.RawFields); raw != "" {
		return raw
	}
	if len(opts.Fields) == 0 {
		return "*"
	}
	quoted := make([]string, len(opts.Fields))
	for i, f := range opts.Fields {
		quoted[i] = mysql.QuoteIdentifier(f)
	}
	return strings.Join(quoted, ", ")
}

func join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
