// Package migration collects the statements that reconcile a set of desired
// tables with a live database, together with their rollback statements and
// the preflight warnings they raise.
package migration

import (
	"strings"

	"sqlpipe/internal/diff"
	"sqlpipe/internal/preflight"
)

// Action is what a migration does to one table.
type Action string

const (
	ActionCreate    Action = "create"
	ActionAlter     Action = "alter"
	ActionUnchanged Action = "unchanged"
)

// Change is the migration step for one table. Plan is set for alters.
type Change struct {
	Table       string     `json:"table"`
	Action      Action     `json:"action"`
	Plan        *diff.Plan `json:"plan,omitempty"`
	SQL         string     `json:"sql,omitempty"`
	RollbackSQL string     `json:"rollback,omitempty"`
}

// Migration struct contains all changes that need to be performed to
// reconcile a schema, in table order.
type Migration struct {
	Changes  []Change            `json:"changes"`
	Warnings []preflight.Warning `json:"warnings,omitempty"`

	// GeneratedAt is the Unix time the migration was planned, 0 if unknown.
	GeneratedAt int64 `json:"generatedAt,omitempty"`
}

// AddCreate records a table that does not exist yet.
func (m *Migration) AddCreate(table, up, down string) {
	m.Changes = append(m.Changes, Change{
		Table:       table,
		Action:      ActionCreate,
		SQL:         strings.TrimSpace(up),
		RollbackSQL: strings.TrimSpace(down),
	})
}

// AddAlter records a reconciliation plan. An empty plan is recorded as
// unchanged and contributes no statements.
func (m *Migration) AddAlter(plan *diff.Plan, up, down string) {
	up = strings.TrimSpace(up)
	c := Change{Action: ActionAlter, Plan: plan, SQL: up, RollbackSQL: strings.TrimSpace(down)}
	if plan != nil {
		c.Table = plan.Table
	}
	if plan.Empty() || up == "" {
		c = Change{Table: c.Table, Action: ActionUnchanged}
	}
	m.Changes = append(m.Changes, c)
}

// Pending returns the number of changes that carry a statement.
func (m *Migration) Pending() int {
	return len(m.SQLStatements())
}

// SQLStatements returns the list of SQL statements that needs to be executed,
// to apply the migration.
func (m *Migration) SQLStatements() []string {
	return m.collect(func(c Change) string { return c.SQL })
}

// RollbackStatements returns the statements that revert the structure, in
// reverse order. Data removed by a dropped column or table is not restored.
func (m *Migration) RollbackStatements() []string {
	stmts := m.collect(func(c Change) string { return c.RollbackSQL })
	for i, j := 0, len(stmts)-1; i < j; i, j = i+1, j-1 {
		stmts[i], stmts[j] = stmts[j], stmts[i]
	}
	return stmts
}

// Annotate replaces the warnings with the analysis of the current
// statements.
func (m *Migration) Annotate(a *preflight.Analyzer) {
	m.Warnings = a.Check(m.SQLStatements()...).Warnings
}

// BreakingNotes returns the messages of danger-level warnings.
func (m *Migration) BreakingNotes() []string {
	return m.notes(preflight.WarnDanger)
}

// InfoNotes returns the messages of caution-level warnings.
func (m *Migration) InfoNotes() []string {
	return m.notes(preflight.WarnCaution)
}

// Count returns the number of changes with the given action.
func (m *Migration) Count(action Action) int {
	n := 0
	for _, c := range m.Changes {
		if c.Action == action {
			n++
		}
	}
	return n
}

func (m *Migration) collect(fieldFn func(Change) string) []string {
	out := make([]string, 0, len(m.Changes))
	for _, c := range m.Changes {
		if s := strings.TrimSpace(fieldFn(c)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (m *Migration) notes(level preflight.WarningLevel) []string {
	seen := make(map[string]struct{}, len(m.Warnings))
	var out []string
	for _, w := range m.Warnings {
		if w.Level != level {
			continue
		}
		if _, ok := seen[w.Message]; ok {
			continue
		}
		seen[w.Message] = struct{}{}
		out = append(out, w.Message)
	}
	return out
}
