package client

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
	"sqlpipe/internal/query"
)

// MaxLimit is the row count used when ListOptions.Skip is set without a
// Limit.
const MaxLimit int64 = 9999999999999

// ListOptions controls Model.Find. Sort entries are column names, optionally
// followed by ASC or DESC.
type ListOptions struct {
	Fields []string
	Sort   []string
	Skip   int64
	Limit  int64
}

func (o ListOptions) selectOptions() query.SelectOptions {
	var tail strings.Builder
	if len(o.Sort) > 0 {
		var parts []string
		for _, s := range o.Sort {
			if t := sortTerm(s); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			tail.WriteString(" ORDER BY " + strings.Join(parts, ", "))
		}
	}
	if o.Skip > 0 || o.Limit > 0 {
		limit := o.Limit
		if limit <= 0 {
			limit = MaxLimit
		}
		tail.WriteString(" LIMIT " + strconv.FormatInt(o.Skip, 10) + "," + strconv.FormatInt(limit, 10))
	}
	return query.SelectOptions{Fields: o.Fields, Tail: tail.String()}
}

func sortTerm(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	term := mysql.QuoteIdentifier(f[0])
	if len(f) > 1 && strings.EqualFold(f[1], "desc") {
		return term + " DESC"
	}
	return term
}

// Model binds the client to one table. An empty query (nil, an empty map or
// an empty list) matches every row.
type Model struct {
	client *Client
	name   string
}

// Model returns a model bound to table name.
func (c *Client) Model(name string) *Model {
	return &Model{client: c, name: name}
}

// Name returns the bound table name.
func (m *Model) Name() string { return m.name }

func (m *Model) Find(ctx context.Context, q any, opts ListOptions) ([]core.Row, error) {
	return m.client.Find(ctx, m.name, matchAll(q), opts.selectOptions())
}

func (m *Model) FindOne(ctx context.Context, q any) (core.Row, error) {
	return m.client.FindOne(ctx, m.name, matchAll(q), query.SelectOptions{})
}

func (m *Model) Create(ctx context.Context, rows ...map[string]any) (*core.Result, error) {
	return m.client.Insert(ctx, m.name, rows...)
}

// Delete deletes at most one matching row.
func (m *Model) Delete(ctx context.Context, q any) (*core.Result, error) {
	return m.client.Delete(ctx, m.name, matchAll(q), "LIMIT 1")
}

func (m *Model) DeleteAll(ctx context.Context, q any) (*core.Result, error) {
	return m.client.Delete(ctx, m.name, matchAll(q), "")
}

// Update updates at most one matching row.
func (m *Model) Update(ctx context.Context, q, changes any) (*core.Result, error) {
	return m.client.Update(ctx, m.name, matchAll(q), changes, "LIMIT 1")
}

func (m *Model) UpdateAll(ctx context.Context, q, changes any) (*core.Result, error) {
	return m.client.Update(ctx, m.name, matchAll(q), changes, "")
}

func (m *Model) Count(ctx context.Context, q any) (int64, error) {
	return m.client.Count(ctx, m.name, matchAll(q))
}

// Incr adds each delta to its column on at most one matching row.
func (m *Model) Incr(ctx context.Context, q any, deltas map[string]any) (*core.Result, error) {
	changes := make(map[string]any, len(deltas))
	for k, v := range deltas {
		changes[k] = query.Incr{Delta: v}
	}
	return m.client.Update(ctx, m.name, matchAll(q), changes, "LIMIT 1")
}

func matchAll(q any) any {
	if q == nil {
		return true
	}
	rv := reflect.ValueOf(q)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.Len() == 0 {
			return true
		}
	}
	return q
}
