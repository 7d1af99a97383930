package mysql

import (
	"strings"

	"sqlpipe/internal/diff"
)

// AlterTable renders a plan as a single ALTER TABLE statement with one
// comma-separated line per operation. An empty plan renders as "".
func AlterTable(plan *diff.Plan) string {
	if plan.Empty() {
		return ""
	}
	lines := make([]string, 0, len(plan.Ops))
	for _, op := range plan.Ops {
		if line := alterLine(op); line != "" {
			lines = append(lines, line)
		}
	}
	return "ALTER TABLE " + QuoteIdentifier(plan.Table) + "\n" + strings.Join(lines, ",\n")
}

func alterLine(op diff.Op) string {
	switch op.Kind {
	case diff.AddColumn:
		return "ADD " + ColumnDefinition(op.Column)
	case diff.ChangeColumn:
		return "CHANGE " + QuoteIdentifier(op.Name) + " " + ColumnDefinition(op.Column)
	case diff.DropColumn:
		return "DROP " + QuoteIdentifier(op.Name)
	case diff.AddIndex:
		return addIndexLine(op)
	case diff.DropIndex:
		if op.Index != nil && op.Index.Primary {
			return "DROP PRIMARY KEY"
		}
		return "DROP INDEX " + QuoteIdentifier(op.Name)
	default:
		return ""
	}
}

func addIndexLine(op diff.Op) string {
	idx := op.Index
	cols := formatColumns(idx.Fields)
	if idx.Primary {
		return "ADD PRIMARY KEY " + cols
	}

	verb := "ADD INDEX "
	switch {
	case idx.Unique:
		verb = "ADD UNIQUE "
	case idx.FullText:
		verb = "ADD FULLTEXT "
	}
	if key := strings.TrimSpace(idx.Key); key != "" {
		return verb + QuoteIdentifier(key) + " " + cols
	}
	return verb + cols
}
