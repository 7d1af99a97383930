// Package metrics counts pipeline traffic with Prometheus collectors. The
// collectors are fed by middleware stages, so every statement dispatched
// through a client is counted whether it is executed, answered by a stage
// or fails.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"sqlpipe/internal/core"
	"sqlpipe/internal/middleware"
)

// Collector holds the sqlpipe collectors.
type Collector struct {
	statements *prometheus.CounterVec // "sqlpipe_statements_total"
	errors     *prometheus.CounterVec // "sqlpipe_errors_total"
	rows       prometheus.Counter     // "sqlpipe_rows_total"
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlpipe_statements_total",
				Help: "Statements dispatched through the pipeline, partitioned by verb.",
			},
			[]string{"verb"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlpipe_errors_total",
				Help: "Failed statements, partitioned by verb and MySQL error number (0 when not a server error).",
			},
			[]string{"verb", "code"},
		),
		rows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sqlpipe_rows_total",
				Help: "Rows returned or affected by successful statements.",
			},
		),
	}

	if err := reg.Register(c.statements); err != nil {
		return nil, fmt.Errorf("metrics: register statement counter: %w", err)
	}
	if err := reg.Register(c.errors); err != nil {
		return nil, fmt.Errorf("metrics: register error counter: %w", err)
	}
	if err := reg.Register(c.rows); err != nil {
		return nil, fmt.Errorf("metrics: register row counter: %w", err)
	}
	return c, nil
}

// Attach registers the counting stages on p. The pre-SQL stage is appended,
// so it counts the statement as rewritten by earlier stages.
func (c *Collector) Attach(p *middleware.Pipeline) []middleware.Handle {
	return []middleware.Handle{
		p.UseSQL(middleware.VerbAny, c.countStatement),
		p.UseResult(c.countRows),
		p.UseError(c.countError),
	}
}

func (c *Collector) countStatement(_ context.Context, sql string) (middleware.Outcome, error) {
	c.statements.WithLabelValues(middleware.VerbOf(sql)).Inc()
	return middleware.Continue(sql), nil
}

func (c *Collector) countRows(_ context.Context, _ string, res *core.Result) *core.Result {
	if res == nil {
		return res
	}
	n := res.AffectedRows
	if len(res.Rows) > 0 {
		n = int64(len(res.Rows))
	}
	c.rows.Add(float64(n))
	return res
}

func (c *Collector) countError(_ context.Context, sql string, err error) (*core.Result, error) {
	code := "0"
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		code = fmt.Sprint(execErr.Number())
	}
	c.errors.WithLabelValues(middleware.VerbOf(sql), code).Inc()
	return nil, nil
}
