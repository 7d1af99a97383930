package preflight

import (
	"encoding/json"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/format"
)

// jsonMigration is the part of a JSON-formatted migration read back by
// SplitStatements.
type jsonMigration struct {
	Format string   `json:"format"`
	SQL    []string `json:"sql"`
}

// SplitStatements splits migration content into statements. Content is
// either a JSON migration (its "sql" list is used) or SQL text. SQL text the
// parser accepts is split on statement boundaries and restored; otherwise it
// is split on lines ending with ";", skipping comment lines.
func (a *Analyzer) SplitStatements(content string) []string {
	content = strings.TrimSpace(content)

	var migration jsonMigration
	if err := json.Unmarshal([]byte(content), &migration); err == nil && migration.Format == "json" {
		var statements []string
		for _, stmt := range migration.SQL {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
		return statements
	}

	if statements := a.splitWithParser(content); len(statements) > 0 {
		return statements
	}
	return splitLines(content)
}

func (a *Analyzer) splitWithParser(content string) []string {
	a.mu.Lock()
	stmtNodes, _, err := a.parser.Parse(content, "", "")
	a.mu.Unlock()
	if err != nil {
		return nil
	}

	var statements []string
	for _, node := range stmtNodes {
		if node == nil {
			continue
		}
		var sb strings.Builder
		if err := node.Restore(format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)); err != nil {
			continue
		}
		if stmt := strings.TrimSpace(sb.String()); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func splitLines(content string) []string {
	var statements []string
	var current strings.Builder
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") || trimmed == "" {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}
	return statements
}
