package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/dialect/mysql"
	"sqlpipe/internal/migration"
)

type sqlFormatter struct{}

// FormatPlan renders a plan as its ALTER TABLE statement.
func (sqlFormatter) FormatPlan(p *diff.Plan) (string, error) {
	if p.Empty() {
		return "-- No changes.\n", nil
	}
	return mysql.AlterTable(p) + ";\n", nil
}

// FormatMigration formats a migration in SQL format.
func (sqlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("-- sqlpipe migration\n")
	if m.GeneratedAt != 0 {
		sb.WriteString("-- Generated at: " + time.Unix(m.GeneratedAt, 0).UTC().Format(time.RFC3339) + "\n")
	}
	sb.WriteString("-- Review before running in production.\n")

	writeCommentSection(&sb, "BREAKING CHANGES (manual review required)", m.BreakingNotes())
	writeCommentSection(&sb, "NOTES", m.InfoNotes())

	rb := m.RollbackStatements()
	if m.Pending() == 0 {
		return formatEmptyMigration(&sb, rb), nil
	}

	sb.WriteString("\n-- SQL\n")
	for _, c := range m.Changes {
		if c.SQL == "" {
			continue
		}
		fmt.Fprintf(&sb, "-- [%s] %s\n", c.Action, c.Table)
		writeStatement(&sb, c.SQL)
	}

	if len(rb) > 0 {
		sb.WriteString("\n-- ROLLBACK SQL (run separately)\n")
		writeRollbackAsComments(&sb, rb)
	}

	return sb.String(), nil
}

// FormatResult renders rows as a tab-aligned table, and statements without
// rows as their counters.
func (sqlFormatter) FormatResult(res *core.Result) (string, error) {
	if res == nil {
		return "", nil
	}
	if len(res.Rows) == 0 && len(res.Columns) == 0 {
		return fmt.Sprintf("-- affected rows: %d, insert id: %d\n", res.AffectedRows, res.InsertID), nil
	}

	var sb strings.Builder
	cols := resultColumns(res)
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(row[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "-- %d rows\n", len(res.Rows))
	return sb.String(), nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatEmptyMigration(sb *strings.Builder, rb []string) string {
	sb.WriteString("\n-- No SQL statements generated.\n")
	if len(rb) > 0 {
		sb.WriteString("\n-- ROLLBACK SQL (run separately if needed)\n")
		writeRollbackAsComments(sb, rb)
	}
	return sb.String()
}

func writeStatement(sb *strings.Builder, stmt string) {
	stmt = strings.TrimSpace(stmt)
	sb.WriteString(stmt)
	if !strings.HasSuffix(stmt, ";") {
		sb.WriteString(";")
	}
	sb.WriteString("\n")
}

// FormatRollbackSQL formats a migration's rollback statements as SQL.
func FormatRollbackSQL(m *migration.Migration) string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("-- sqlpipe rollback\n")
	sb.WriteString("-- Run to revert the migration (review carefully).\n")

	rb := m.RollbackStatements()
	if len(rb) == 0 {
		sb.WriteString("\n-- No rollback statements generated.\n")
		return sb.String()
	}

	sb.WriteString("\n-- SQL\n")
	for _, stmt := range rb {
		writeStatement(&sb, stmt)
	}
	return sb.String()
}

// WriteMigration writes the rendering of a migration by f to w.
func WriteMigration(f Formatter, m *migration.Migration, w io.Writer) error {
	content, err := f.FormatMigration(m)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = io.WriteString(w, content)
	return err
}

// WriteRollback writes formatted rollback SQL to the given writer.
func WriteRollback(m *migration.Migration, w io.Writer) error {
	_, err := io.WriteString(w, FormatRollbackSQL(m))
	return err
}

func writeCommentSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, item := range items {
		for _, line := range splitCommentLines(item) {
			if line == "" {
				continue
			}
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func splitCommentLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

func writeRollbackAsComments(sb *strings.Builder, rollback []string) {
	for _, stmt := range rollback {
		lines := splitCommentLines(stmt)
		for i, line := range lines {
			if line == "" {
				continue
			}
			sb.WriteString("-- ")
			sb.WriteString(line)
			if i == len(lines)-1 && !strings.HasSuffix(line, ";") {
				sb.WriteString(";")
			}
			sb.WriteString("\n")
		}
	}
}
