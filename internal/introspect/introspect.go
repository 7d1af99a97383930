// Package introspect contains the introspecter interface which reads the
// current columns and indexes of a live table. Statements are issued through
// a Querier, so they pass the same middleware pipeline as any other query.
package introspect

import (
	"context"
	"fmt"
	"sync"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect"
)

// Querier runs one SQL statement and returns its rows.
type Querier interface {
	Query(ctx context.Context, sql string) (*core.Result, error)
}

type Introspecter interface {
	Fields(ctx context.Context, q Querier, table string) ([]*core.Column, error)
	Indexes(ctx context.Context, q Querier, table string) ([]*core.Index, error)
}

var (
	registry = make(map[dialect.Type]func() Introspecter)
	mu       sync.RWMutex
)

func Register(d dialect.Type, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = fn
}

func NewIntrospecter(d dialect.Type) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[d]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported dialect %v", d)
	}

	return fn(), nil
}

// Table reads both the fields and the indexes of table.
func Table(ctx context.Context, i Introspecter, q Querier, table string) (*core.Table, error) {
	cols, err := i.Fields(ctx, q, table)
	if err != nil {
		return nil, err
	}
	idx, err := i.Indexes(ctx, q, table)
	if err != nil {
		return nil, err
	}
	return &core.Table{Name: table, Columns: cols, Indexes: idx}, nil
}
