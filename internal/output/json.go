package output

import (
	"encoding/json"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/migration"
)

type jsonFormatter struct{}

type planSummary struct {
	AddColumns    int `json:"addColumns"`
	ChangeColumns int `json:"changeColumns"`
	DropColumns   int `json:"dropColumns"`
	AddIndexes    int `json:"addIndexes"`
	DropIndexes   int `json:"dropIndexes"`
}

type planPayload struct {
	Format  string      `json:"format"`
	Table   string      `json:"table,omitempty"`
	Summary planSummary `json:"summary"`
	Ops     []diff.Op   `json:"ops,omitempty"`
	SQL     string      `json:"sql,omitempty"`
}

type migrationSummary struct {
	Creates            int `json:"creates"`
	Alters             int `json:"alters"`
	Unchanged          int `json:"unchanged"`
	BreakingChanges    int `json:"breakingChanges"`
	Notes              int `json:"notes"`
	SQLStatements      int `json:"sqlStatements"`
	RollbackStatements int `json:"rollbackStatements"`
}

type migrationPayload struct {
	Format          string             `json:"format"`
	GeneratedAt     int64              `json:"generatedAt,omitempty"`
	Summary         migrationSummary   `json:"summary"`
	Changes         []migration.Change `json:"changes,omitempty"`
	BreakingChanges []string           `json:"breakingChanges,omitempty"`
	Notes           []string           `json:"notes,omitempty"`
	SQL             []string           `json:"sql,omitempty"`
	Rollback        []string           `json:"rollback,omitempty"`
}

type resultPayload struct {
	Format string `json:"format"`
	*core.Result
}

type Payload interface {
	planPayload | migrationPayload | resultPayload
}

func newPlanSummary(p *diff.Plan) planSummary {
	return planSummary{
		AddColumns:    p.Count(diff.AddColumn),
		ChangeColumns: p.Count(diff.ChangeColumn),
		DropColumns:   p.Count(diff.DropColumn),
		AddIndexes:    p.Count(diff.AddIndex),
		DropIndexes:   p.Count(diff.DropIndex),
	}
}

func (jsonFormatter) FormatPlan(p *diff.Plan) (string, error) {
	payload := planPayload{Format: string(FormatJSON), Summary: newPlanSummary(p)}
	if p != nil {
		payload.Table = p.Table
		payload.Ops = p.Ops
		payload.SQL = mysql.AlterTable(p)
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatMigration(m *migration.Migration) (string, error) {
	payload := migrationPayload{Format: string(FormatJSON)}
	if m != nil {
		breaking := m.BreakingNotes()
		notes := m.InfoNotes()
		sql := normalizeStatements(m.SQLStatements())
		rollback := normalizeStatements(m.RollbackStatements())

		payload.GeneratedAt = m.GeneratedAt
		payload.Changes = m.Changes
		payload.BreakingChanges = breaking
		payload.Notes = notes
		payload.SQL = sql
		payload.Rollback = rollback
		payload.Summary = migrationSummary{
			Creates:            m.Count(migration.ActionCreate),
			Alters:             m.Count(migration.ActionAlter),
			Unchanged:          m.Count(migration.ActionUnchanged),
			BreakingChanges:    len(breaking),
			Notes:              len(notes),
			SQLStatements:      len(sql),
			RollbackStatements: len(rollback),
		}
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatResult(res *core.Result) (string, error) {
	if res == nil {
		res = &core.Result{}
	}
	return marshalJSON(resultPayload{Format: string(FormatJSON), Result: res})
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
