package output

import (
	"fmt"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/migration"
)

type summaryFormatter struct{}

// FormatPlan formats a plan as a compact summary.
// Example output:
//
//	Table users
//	Columns: +1, ~2, -0
//	Indexes: +1, -1
func (summaryFormatter) FormatPlan(p *diff.Plan) (string, error) {
	if p.Empty() {
		return "No changes detected.\n", nil
	}
	s := newPlanSummary(p)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %s\n", p.Table)
	fmt.Fprintf(&sb, "Columns: +%d, ~%d, -%d\n", s.AddColumns, s.ChangeColumns, s.DropColumns)
	fmt.Fprintf(&sb, "Indexes: +%d, -%d\n", s.AddIndexes, s.DropIndexes)
	return sb.String(), nil
}

// FormatMigration formats a migration as a compact summary.
func (summaryFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil || len(m.Changes) == 0 {
		return "No migration operations.\n", nil
	}

	var sb strings.Builder

	breaking := m.BreakingNotes()
	notes := m.InfoNotes()

	sb.WriteString("Migration Summary\n")
	sb.WriteString("=================\n\n")

	fmt.Fprintf(&sb, "Tables:              +%d, ~%d, =%d\n",
		m.Count(migration.ActionCreate), m.Count(migration.ActionAlter), m.Count(migration.ActionUnchanged))
	fmt.Fprintf(&sb, "SQL Statements:      %d\n", len(m.SQLStatements()))
	fmt.Fprintf(&sb, "Rollback Statements: %d\n", len(m.RollbackStatements()))

	writeChangeDetails(&sb, m.Changes)

	if len(breaking) > 0 {
		fmt.Fprintf(&sb, "\nBreaking Changes: %d\n", len(breaking))
		for _, b := range breaking {
			fmt.Fprintf(&sb, "   - %s\n", b)
		}
	}

	if len(notes) > 0 {
		fmt.Fprintf(&sb, "\nNotes: %d\n", len(notes))
		for _, n := range notes {
			fmt.Fprintf(&sb, "   - %s\n", n)
		}
	}

	return sb.String(), nil
}

func writeChangeDetails(sb *strings.Builder, changes []migration.Change) {
	sb.WriteString("\nDetails:\n")
	for _, c := range changes {
		switch c.Action {
		case migration.ActionCreate:
			fmt.Fprintf(sb, "  + %s (new table)\n", c.Table)
		case migration.ActionAlter:
			fmt.Fprintf(sb, "  ~ %s (%s)\n", c.Table, countPlanChanges(c.Plan))
		default:
			fmt.Fprintf(sb, "  = %s (up to date)\n", c.Table)
		}
	}
}

// countPlanChanges returns a human-readable summary of changes in a plan.
func countPlanChanges(p *diff.Plan) string {
	s := newPlanSummary(p)
	var parts []string
	if s.AddColumns > 0 {
		parts = append(parts, fmt.Sprintf("+%d cols", s.AddColumns))
	}
	if s.DropColumns > 0 {
		parts = append(parts, fmt.Sprintf("-%d cols", s.DropColumns))
	}
	if s.ChangeColumns > 0 {
		parts = append(parts, fmt.Sprintf("~%d cols", s.ChangeColumns))
	}
	if s.AddIndexes > 0 {
		parts = append(parts, fmt.Sprintf("+%d idx", s.AddIndexes))
	}
	if s.DropIndexes > 0 {
		parts = append(parts, fmt.Sprintf("-%d idx", s.DropIndexes))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

// FormatResult reports the row count or the statement counters.
func (summaryFormatter) FormatResult(res *core.Result) (string, error) {
	if res == nil {
		return "No result.\n", nil
	}
	if len(res.Rows) > 0 || len(res.Columns) > 0 {
		return fmt.Sprintf("%d rows (%s)\n", len(res.Rows), strings.Join(resultColumns(res), ", ")), nil
	}
	return fmt.Sprintf("Affected rows: %d\nInsert id: %d\n", res.AffectedRows, res.InsertID), nil
}
