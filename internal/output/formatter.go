// Package output provides a set of formatters for reconciliation plans,
// migrations and query results. It is extendable and for now provides
// three formats: SQL, JSON and summary.
package output

import (
	"fmt"
	"slices"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/migration"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter renders the values the command line prints.
type Formatter interface {
	FormatPlan(*diff.Plan) (string, error)
	FormatMigration(*migration.Migration) (string, error)
	FormatResult(*core.Result) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'sql', 'json', or 'summary'", name)
	}
}

func normalizeStatements(stmts []string) []string {
	var out []string
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		out = append(out, stmt)
	}
	return out
}

// resultColumns returns the column order of a result. Results produced by
// middleware may carry rows without a column list; their keys are sorted.
func resultColumns(res *core.Result) []string {
	if len(res.Columns) > 0 {
		return res.Columns
	}
	first := res.First()
	cols := make([]string, 0, len(first))
	for k := range first {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}
