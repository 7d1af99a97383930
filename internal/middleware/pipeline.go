// Package middleware implements the stage pipeline that runs around every
// statement dispatch: pre-SQL stages may rewrite or answer a statement,
// post-result stages transform results, and on-error stages observe,
// recover from, or replace failures.
package middleware

import (
	"context"
	"strings"
	"unicode"

	"sqlpipe/internal/core"
)

// Verb scopes for pre-SQL stages. A stage registered with VerbAny runs for
// every statement, the others only for statements starting with that verb.
const (
	VerbAny    = "sql"
	VerbSelect = "select"
	VerbInsert = "insert"
	VerbUpdate = "update"
	VerbDelete = "delete"
	// VerbAll is the verb of a statement without any whitespace.
	VerbAll = "all"
)

// VerbOf returns the lower-cased first word of a statement, or VerbAll when
// the statement contains no whitespace.
func VerbOf(sql string) string {
	sql = strings.TrimSpace(sql)
	i := strings.IndexFunc(sql, unicode.IsSpace)
	if i == -1 {
		return VerbAll
	}
	return strings.ToLower(sql[:i])
}

// Outcome is what a pre-SQL stage decides: continue with (possibly
// rewritten) SQL, or respond with a final result.
type Outcome struct {
	sql     string
	result  *core.Result
	respond bool
}

// Continue passes sql on to the next stage.
func Continue(sql string) Outcome { return Outcome{sql: sql} }

// Respond ends the dispatch with res. The executor and the post-result
// stages are skipped.
func Respond(res *core.Result) Outcome { return Outcome{result: res, respond: true} }

// SQLStage runs before execution.
type SQLStage func(ctx context.Context, sql string) (Outcome, error)

// ResultStage transforms a successful result. It cannot abort.
type ResultStage func(ctx context.Context, sql string, res *core.Result) *core.Result

// ErrorStage handles a failure. Returning (nil, nil) only observes and the
// next stage runs. A non-nil result recovers and ends the chain. A non-nil
// error ends the chain and is returned wrapped in core.MiddlewareError.
type ErrorStage func(ctx context.Context, sql string, err error) (*core.Result, error)

// Executor runs the final statement.
type Executor interface {
	Exec(ctx context.Context, sql string) (*core.Result, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, sql string) (*core.Result, error)

func (f ExecutorFunc) Exec(ctx context.Context, sql string) (*core.Result, error) {
	return f(ctx, sql)
}

type sqlEntry struct {
	verb  string
	stage SQLStage
}

// Pipeline holds the three stage registries. The zero value is an empty,
// ready to use pipeline.
type Pipeline struct {
	sql    Registry[sqlEntry]
	result Registry[ResultStage]
	errs   Registry[ErrorStage]
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// UseSQL registers a pre-SQL stage scoped to verb (VerbAny for all).
func (p *Pipeline) UseSQL(verb string, stage SQLStage) Handle {
	verb = strings.ToLower(strings.TrimSpace(verb))
	if verb == "" {
		verb = VerbAny
	}
	return p.sql.Add(sqlEntry{verb: verb, stage: stage})
}

// UseResult registers a post-result stage.
func (p *Pipeline) UseResult(stage ResultStage) Handle {
	return p.result.Add(stage)
}

// UseError registers an on-error stage.
func (p *Pipeline) UseError(stage ErrorStage) Handle {
	return p.errs.Add(stage)
}

// Len returns the number of registered pre-SQL, post-result and on-error
// stages.
func (p *Pipeline) Len() (sql, result, errs int) {
	return p.sql.Len(), p.result.Len(), p.errs.Len()
}

// Dispatch runs sql through the pipeline and exec.
//
// Pre-SQL stages run in registration order; each sees the SQL produced by
// the previous one and is matched against that SQL's verb. Stage errors and
// execution errors are routed to the on-error stages.
func (p *Pipeline) Dispatch(ctx context.Context, sql string, exec Executor) (*core.Result, error) {
	current := sql
	for _, e := range p.sql.Snapshot() {
		if e.verb != VerbAny && e.verb != VerbOf(current) {
			continue
		}
		out, err := e.stage(ctx, current)
		if err != nil {
			return p.fail(ctx, current, err)
		}
		if out.respond {
			return out.result, nil
		}
		current = out.sql
	}

	res, err := exec.Exec(ctx, current)
	if err != nil {
		return p.fail(ctx, current, err)
	}
	for _, stage := range p.result.Snapshot() {
		res = stage(ctx, current, res)
	}
	return res, nil
}

func (p *Pipeline) fail(ctx context.Context, sql string, err error) (*core.Result, error) {
	for _, stage := range p.errs.Snapshot() {
		res, stageErr := stage(ctx, sql, err)
		if stageErr != nil {
			return nil, &core.MiddlewareError{SQL: sql, Err: stageErr, Cause: err}
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, err
}
