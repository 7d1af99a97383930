package client

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/migration"
)

// errNoSuchTable is the MySQL error number for ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

// CreateTable validates t and issues its CREATE TABLE statement.
func (c *Client) CreateTable(ctx context.Context, t *core.Table) (*core.Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return c.Query(ctx, c.gen.CreateTable(t))
}

// DropTable issues DROP TABLE for name.
func (c *Client) DropTable(ctx context.Context, name string) (*core.Result, error) {
	return c.Query(ctx, c.gen.DropTable(name))
}

// ShowFields returns the live columns of table.
func (c *Client) ShowFields(ctx context.Context, table string) ([]*core.Column, error) {
	return c.intro.Fields(ctx, c, table)
}

// ShowIndexes returns the live indexes of table.
func (c *Client) ShowIndexes(ctx context.Context, table string) ([]*core.Index, error) {
	return c.intro.Indexes(ctx, c, table)
}

// ObserveTable reads the live fields and indexes of table concurrently.
func (c *Client) ObserveTable(ctx context.Context, table string) (*core.Table, error) {
	var (
		cols    []*core.Column
		indexes []*core.Index
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cols, err = c.ShowFields(gctx, table)
		return err
	})
	g.Go(func() error {
		var err error
		indexes, err = c.ShowIndexes(gctx, table)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &core.Table{Name: table, Columns: cols, Indexes: indexes}, nil
}

// PlanTable compares desired with the live table and returns the plan and
// the ALTER TABLE statement that applies it. sql is empty when nothing
// differs.
func (c *Client) PlanTable(ctx context.Context, desired *core.Table) (*diff.Plan, string, error) {
	if err := desired.Validate(); err != nil {
		return nil, "", err
	}
	observed, err := c.ObserveTable(ctx, desired.Name)
	if err != nil {
		return nil, "", err
	}
	plan := diff.Tables(desired, observed, c.diffOpts)
	return plan, c.gen.AlterTable(plan), nil
}

// UpdateTable reconciles the live table with desired. No statement is
// issued when the plan is empty.
func (c *Client) UpdateTable(ctx context.Context, desired *core.Table) (*diff.Plan, error) {
	plan, stmt, err := c.PlanTable(ctx, desired)
	if err != nil {
		return nil, err
	}
	if plan.Empty() || stmt == "" {
		c.logger.DebugContext(ctx, "table up to date", "table", desired.Name)
		return plan, nil
	}
	if _, err := c.Query(ctx, stmt); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "table updated", "table", desired.Name,
		"add_columns", plan.Count(diff.AddColumn),
		"change_columns", plan.Count(diff.ChangeColumn),
		"drop_columns", plan.Count(diff.DropColumn),
		"add_indexes", plan.Count(diff.AddIndex),
		"drop_indexes", plan.Count(diff.DropIndex))
	return plan, nil
}

// PlanSchema builds the migration reconciling every table of desired with
// the database. Missing tables are created; existing ones are altered. The
// rollback of an alter is the reverse plan.
func (c *Client) PlanSchema(ctx context.Context, desired []*core.Table) (*migration.Migration, error) {
	m := &migration.Migration{GeneratedAt: Timestamp()}
	for _, t := range desired {
		if err := t.Validate(); err != nil {
			return nil, err
		}

		observed, err := c.ObserveTable(ctx, t.Name)
		if isNoSuchTable(err) {
			m.AddCreate(t.Name, c.gen.CreateTable(t), c.gen.DropTable(t.Name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("observe %q: %w", t.Name, err)
		}

		plan := diff.Tables(t, observed, c.diffOpts)
		if plan.Empty() {
			m.AddAlter(plan, "", "")
			continue
		}
		reverse := diff.Tables(observed, t, c.diffOpts)
		m.AddAlter(plan, c.gen.AlterTable(plan), c.gen.AlterTable(reverse))
	}
	return m, nil
}

// Apply issues the pending statements of m in order and stops at the first
// failure.
func (c *Client) Apply(ctx context.Context, m *migration.Migration) error {
	for _, ch := range m.Changes {
		if ch.SQL == "" {
			continue
		}
		if _, err := c.Query(ctx, ch.SQL); err != nil {
			return fmt.Errorf("apply %s %q: %w", ch.Action, ch.Table, err)
		}
		c.logger.InfoContext(ctx, "applied", "table", ch.Table, "action", string(ch.Action))
	}
	return nil
}

func isNoSuchTable(err error) bool {
	var execErr *core.ExecutionError
	return errors.As(err, &execErr) && execErr.Number() == errNoSuchTable
}
