// Package executor runs final SQL statements on a pooled connection.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"sqlpipe/internal/core"
)

// rowVerbs are the statement verbs that return a result set.
var rowVerbs = map[string]bool{
	"select":   true,
	"show":     true,
	"describe": true,
	"desc":     true,
	"explain":  true,
	"with":     true,
	"table":    true,
	"values":   true,
}

// Executor runs each statement on its own connection taken from the pool
// and releases it before returning, on success and on failure.
type Executor struct {
	db *sql.DB
}

// New returns an executor over db.
func New(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Exec runs query. Row-returning statements fill Result.Columns and
// Result.Rows, the others Result.AffectedRows and Result.InsertID.
func (e *Executor) Exec(ctx context.Context, query string) (*core.Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, &core.ExecutionError{SQL: query, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer conn.Close()

	if rowVerbs[leadingKeyword(query)] {
		return e.query(ctx, conn, query)
	}

	res, err := conn.ExecContext(ctx, query)
	if err != nil {
		return nil, &core.ExecutionError{SQL: query, Err: err}
	}
	out := &core.Result{}
	if n, err := res.RowsAffected(); err == nil {
		out.AffectedRows = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.InsertID = id
	}
	return out, nil
}

func (e *Executor) query(ctx context.Context, conn *sql.Conn, query string) (*core.Result, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.ExecutionError{SQL: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &core.ExecutionError{SQL: query, Err: err}
	}

	out := &core.Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &core.ExecutionError{SQL: query, Err: err}
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.ExecutionError{SQL: query, Err: err}
	}
	return out, nil
}

// leadingKeyword returns the lower-cased first keyword of query, skipping
// whitespace, comments and opening parentheses.
func leadingKeyword(query string) string {
	s := query
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			i := strings.IndexByte(s, '\n')
			if i == -1 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i == -1 {
				return ""
			}
			s = s[i+4:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
			if end == -1 {
				end = len(s)
			}
			return strings.ToLower(s[:end])
		}
	}
}

// normalize converts text-protocol byte slices to strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
