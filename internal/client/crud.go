package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"sqlpipe/internal/condition"
	"sqlpipe/internal/core"
	"sqlpipe/internal/query"
)

// Timestamp returns the current Unix time in seconds.
func Timestamp() int64 {
	return time.Now().Unix()
}

// Insert inserts rows into table. See query.Insert for how rows with
// different keys are combined.
func (c *Client) Insert(ctx context.Context, table string, rows ...map[string]any) (*core.Result, error) {
	stmt, err := query.Insert(table, rows)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, stmt)
}

// Update updates the rows of table matching where. tail is appended to the
// statement (for example "LIMIT 1").
func (c *Client) Update(ctx context.Context, table string, where, changes any, tail string) (*core.Result, error) {
	w, err := condition.CompileAny(where)
	if err != nil {
		return nil, err
	}
	stmt, err := query.Update(table, w, changes, tail)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, stmt)
}

// Delete deletes the rows of table matching where.
func (c *Client) Delete(ctx context.Context, table string, where any, tail string) (*core.Result, error) {
	w, err := condition.CompileAny(where)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, query.Delete(table, w, tail))
}

// Find returns the rows of table matching where.
func (c *Client) Find(ctx context.Context, table string, where any, opts query.SelectOptions) ([]core.Row, error) {
	w, err := condition.CompileAny(where)
	if err != nil {
		return nil, err
	}
	res, err := c.Query(ctx, query.Select(table, w, opts))
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// FindOne returns the first matching row, or nil when nothing matches. A
// LIMIT 1 is added unless opts.Tail already limits the result.
func (c *Client) FindOne(ctx context.Context, table string, where any, opts query.SelectOptions) (core.Row, error) {
	opts.Tail = query.WithLimitOne(opts.Tail)
	rows, err := c.Find(ctx, table, where, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Count returns the number of rows of table matching where.
func (c *Client) Count(ctx context.Context, table string, where any) (int64, error) {
	w, err := condition.CompileAny(where)
	if err != nil {
		return 0, err
	}
	res, err := c.Query(ctx, query.Count(table, w))
	if err != nil {
		return 0, err
	}
	row := res.First()
	if row == nil {
		return 0, nil
	}
	return toInt64(row["c"])
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("count: %w", err)
		}
		return i, nil
	case []byte:
		return toInt64(string(n))
	default:
		return 0, fmt.Errorf("count: unexpected value %T", v)
	}
}
