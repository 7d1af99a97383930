// Package dialect defines the SQL rendering capability the rest of the
// toolkit depends on. Implementations register themselves by name.
package dialect

import (
	"fmt"
	"sync"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
)

type Type string

const (
	MySQL Type = "mysql"
)

// Escaper quotes identifiers and literal values.
type Escaper interface {
	QuoteIdentifier(name string) string
	Literal(v any) string
}

// Generator renders DDL for table schemas and diff plans.
type Generator interface {
	Escaper
	CreateTable(t *core.Table) string
	AlterTable(plan *diff.Plan) string
	DropTable(name string) string
}

var (
	registry = map[Type]func() Generator{}
	mu       sync.RWMutex
)

// RegisterDialect creates a new registry entry for the specified dialect.
func RegisterDialect(d Type, ctor func() Generator) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = ctor
}

// GetDialect returns a generator for the specified dialect.
func GetDialect(d Type) (Generator, error) {
	mu.RLock()
	ctor, ok := registry[d]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	return ctor(), nil
}
