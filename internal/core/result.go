package core

// Row is a single result row keyed by column name.
type Row map[string]any

// Result is the outcome of one statement. Row-returning statements fill
// Columns and Rows, the others fill AffectedRows and InsertID.
type Result struct {
	Columns      []string `json:"columns,omitempty"`
	Rows         []Row    `json:"rows,omitempty"`
	AffectedRows int64    `json:"affectedRows"`
	InsertID     int64    `json:"insertId"`
}

// First returns the first row or nil.
func (r *Result) First() Row {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}
