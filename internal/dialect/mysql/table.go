package mysql

import (
	"slices"
	"strings"

	"sqlpipe/internal/core"
)

var defaultKeywords = []string{"NULL", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "NOW()", "CURRENT_TIMESTAMP()"}

// CreateTable renders a CREATE TABLE statement: one line per column, then
// one line per index.
func CreateTable(t *core.Table) string {
	lines := make([]string, 0, len(t.Columns)+len(t.Indexes))
	for _, c := range t.Columns {
		lines = append(lines, ColumnDefinition(c))
	}
	for _, idx := range t.Indexes {
		lines = append(lines, IndexDefinition(idx))
	}
	return "CREATE TABLE " + QuoteIdentifier(t.Name) + "(\n" + strings.Join(lines, ",\n") + "\n)"
}

// DropTable renders a DROP TABLE IF EXISTS statement.
func DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + QuoteIdentifier(name)
}

// ColumnDefinition renders a column as used by CREATE TABLE, ADD and CHANGE:
//
//	`name` TYPE[(size)] [CHARACTER SET c] NULL|NOT NULL [DEFAULT v] [AUTO_INCREMENT]
func ColumnDefinition(c *core.Column) string {
	parts := []string{QuoteIdentifier(c.Name)}
	if c.TypeOnly {
		return strings.Join(append(parts, strings.ToUpper(strings.TrimSpace(c.Type))), " ")
	}

	parts = addType(parts, c)
	parts = addCharset(parts, c)
	parts = addNullability(parts, c)
	parts = addDefault(parts, c)
	parts = addAutoIncrement(parts, c)
	return strings.Join(parts, " ")
}

func addType(parts []string, c *core.Column) []string {
	typ, mods := splitModifiers(c.Type)
	if size := strings.TrimSpace(c.Size); size != "" {
		typ += "(" + size + ")"
	}
	return append(append(parts, typ), mods...)
}

var typeModifiers = []string{"UNSIGNED", "SIGNED", "ZEROFILL"}

// splitModifiers peels trailing numeric modifiers off a type so the size can
// go between them: "DECIMAL UNSIGNED ZEROFILL" gives "DECIMAL" and
// [UNSIGNED ZEROFILL].
func splitModifiers(raw string) (string, []string) {
	words := strings.Fields(strings.ToUpper(raw))
	end := len(words)
	for end > 1 && slices.Contains(typeModifiers, words[end-1]) {
		end--
	}
	return strings.Join(words[:end], " "), words[end:]
}

func addCharset(parts []string, c *core.Column) []string {
	if charset := strings.TrimSpace(c.Charset); charset != "" {
		parts = append(parts, "CHARACTER SET "+charset)
	}
	return parts
}

func addNullability(parts []string, c *core.Column) []string {
	if c.Nullable {
		return append(parts, "NULL")
	}
	return append(parts, "NOT NULL")
}

func addDefault(parts []string, c *core.Column) []string {
	if !c.HasDefault {
		return parts
	}
	return append(parts, "DEFAULT "+formatDefault(c.Default))
}

func addAutoIncrement(parts []string, c *core.Column) []string {
	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	return parts
}

func formatDefault(v any) string {
	if s, ok := v.(string); ok {
		upper := strings.ToUpper(strings.TrimSpace(s))
		if slices.Contains(defaultKeywords, upper) {
			return upper
		}
	}
	return Literal(v)
}

// IndexDefinition renders an index line for CREATE TABLE.
func IndexDefinition(idx *core.Index) string {
	cols := formatColumns(idx.Fields)
	switch {
	case idx.Primary:
		return "PRIMARY KEY " + cols
	case idx.Unique:
		return "UNIQUE KEY " + QuoteIdentifier(idx.Name()) + " " + cols
	case idx.FullText:
		return "FULLTEXT KEY " + QuoteIdentifier(idx.Name()) + " " + cols
	default:
		return "KEY " + QuoteIdentifier(idx.Name()) + " " + cols
	}
}

func formatColumns(cols []string) string {
	var quoted []string
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		quoted = append(quoted, QuoteIdentifier(c))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
