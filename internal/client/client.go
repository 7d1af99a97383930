// Package client is the sqlpipe entry point. A Client owns a MySQL
// connection pool and a middleware pipeline; every statement it issues,
// including the introspection queries of schema reconciliation, is
// dispatched through that pipeline.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"sqlpipe/internal/config"
	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/executor"
	"sqlpipe/internal/introspect"
	_ "sqlpipe/internal/introspect/mysql" // registers the MySQL introspecter
	"sqlpipe/internal/middleware"
)

// Client issues statements through a middleware pipeline. It is safe for
// concurrent use.
type Client struct {
	db       *sql.DB
	exec     middleware.Executor
	pipeline *middleware.Pipeline
	gen      dialect.Generator
	intro    introspect.Introspecter
	logger   *slog.Logger
	diffOpts diff.Options
	counter  atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Statements are logged at debug level,
// failures at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDiffOptions sets the options used by PlanTable and UpdateTable.
func WithDiffOptions(o diff.Options) Option {
	return func(c *Client) { c.diffOpts = o }
}

// WithPipeline makes the client dispatch through p instead of a pipeline of
// its own, so several clients can share stages.
func WithPipeline(p *middleware.Pipeline) Option {
	return func(c *Client) {
		if p != nil {
			c.pipeline = p
		}
	}
}

// New returns a client over an open pool. The client does not take
// ownership of db until Close is called.
func New(db *sql.DB, opts ...Option) (*Client, error) {
	gen, err := dialect.GetDialect(dialect.MySQL)
	if err != nil {
		return nil, err
	}
	intro, err := introspect.NewIntrospecter(dialect.MySQL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		db:       db,
		exec:     executor.New(db),
		pipeline: middleware.New(),
		gen:      gen,
		intro:    intro,
		logger:   slog.New(slog.DiscardHandler),
		diffOpts: diff.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open creates a pool of at most cfg.Pool connections and pings it.
func Open(ctx context.Context, cfg config.MySQL, opts ...Option) (*Client, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.Pool)
	db.SetMaxIdleConns(cfg.Pool)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c, err := New(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.logger.Debug("connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database, "pool", cfg.Pool)
	return c, nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Pipeline returns the client's middleware pipeline.
func (c *Client) Pipeline() *middleware.Pipeline { return c.pipeline }

// Use registers a pre-SQL stage scoped to verb. An empty verb or
// middleware.VerbAny matches every statement.
func (c *Client) Use(verb string, stage middleware.SQLStage) middleware.Handle {
	c.logger.Debug("use", "stage", "sql", "verb", verb)
	return c.pipeline.UseSQL(verb, stage)
}

// UseResult registers a post-result stage.
func (c *Client) UseResult(stage middleware.ResultStage) middleware.Handle {
	c.logger.Debug("use", "stage", "result")
	return c.pipeline.UseResult(stage)
}

// UseError registers an on-error stage.
func (c *Client) UseError(stage middleware.ErrorStage) middleware.Handle {
	c.logger.Debug("use", "stage", "error")
	return c.pipeline.UseError(stage)
}

// Query dispatches a raw statement through the pipeline.
func (c *Client) Query(ctx context.Context, sql string) (*core.Result, error) {
	n := c.counter.Add(1)
	c.logger.DebugContext(ctx, "query", "n", n, "sql", sql)

	res, err := c.pipeline.Dispatch(ctx, sql, c.exec)
	if err != nil {
		c.logger.WarnContext(ctx, "query failed", "n", n, "sql", sql, "err", err)
		return nil, err
	}
	if res == nil {
		res = &core.Result{}
	}
	return res, nil
}
