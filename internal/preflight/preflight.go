// Package preflight inspects DDL before it reaches the database. It flags
// statements that lock tables or destroy data, and provides a pipeline stage
// that refuses destructive statements unless they are explicitly allowed.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sqlpipe/internal/middleware"
)

// ErrDestructive is matched by errors returned from the Guard stage.
var ErrDestructive = errors.New("destructive statement refused")

// DestructiveError reports a statement refused by Guard.
type DestructiveError struct {
	SQL    string
	Reason string
}

func (e *DestructiveError) Error() string {
	return fmt.Sprintf("%s (use --unsafe to allow): %s", e.Reason, e.SQL)
}

func (e *DestructiveError) Unwrap() error { return ErrDestructive }

// WarningLevel contains different levels of danger.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Warning contains a Level of a warning, message, and the statement it
// concerns.
type Warning struct {
	Level   WarningLevel `json:"level"`
	Message string       `json:"message"`
	SQL     string       `json:"sql"`
}

// Result contains the warnings for a batch of statements.
type Result struct {
	Warnings []Warning `json:"warnings,omitempty"`
}

// HasDestructive reports whether any warning is at danger level.
func (r *Result) HasDestructive() bool {
	for _, w := range r.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}

// Check analyzes statements in order.
func (a *Analyzer) Check(statements ...string) *Result {
	result := &Result{}
	for _, stmt := range statements {
		if stmt == "" {
			continue
		}
		analysis := a.Analyze(stmt)
		for _, reason := range analysis.BlockingReasons {
			result.Warnings = append(result.Warnings, Warning{
				Level:   WarnCaution,
				Message: "Potentially blocking DDL: " + reason,
				SQL:     stmt,
			})
		}
		if analysis.IsDestructive {
			result.Warnings = append(result.Warnings, Warning{
				Level:   WarnDanger,
				Message: analysis.DestructiveReason,
				SQL:     stmt,
			})
		}
	}
	return result
}

// GuardOptions configures Guard.
type GuardOptions struct {
	// AllowUnsafe lets destructive statements through, logging them.
	AllowUnsafe bool
	Logger      *slog.Logger
}

// Guard returns a pre-SQL stage that refuses destructive statements with a
// DestructiveError unless opts.AllowUnsafe is set. Blocking statements are
// logged at warn level and passed on unchanged.
func Guard(a *Analyzer, opts GuardOptions) middleware.SQLStage {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(ctx context.Context, sql string) (middleware.Outcome, error) {
		analysis := a.Analyze(sql)
		for _, reason := range analysis.BlockingReasons {
			logger.WarnContext(ctx, "blocking statement", "type", analysis.StatementType, "reason", reason)
		}
		if analysis.IsDestructive {
			if !opts.AllowUnsafe {
				return middleware.Outcome{}, &DestructiveError{SQL: sql, Reason: analysis.DestructiveReason}
			}
			logger.WarnContext(ctx, "destructive statement allowed", "type", analysis.StatementType, "reason", analysis.DestructiveReason)
		}
		return middleware.Continue(sql), nil
	}
}
