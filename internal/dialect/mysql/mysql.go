// Package mysql renders MySQL SQL: identifier and literal quoting, column
// and index definitions, and ALTER TABLE statements for diff plans.
package mysql

import (
	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect"
	"sqlpipe/internal/diff"
)

func init() {
	dialect.RegisterDialect(dialect.MySQL, func() dialect.Generator {
		return NewMySQLGenerator()
	})
}

// Generator is a stateless dialect.Generator for MySQL.
type Generator struct{}

// NewMySQLGenerator initializes a new MySQL generator instance.
func NewMySQLGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) QuoteIdentifier(name string) string { return QuoteIdentifier(name) }
func (g *Generator) Literal(v any) string               { return Literal(v) }
func (g *Generator) CreateTable(t *core.Table) string   { return CreateTable(t) }
func (g *Generator) AlterTable(plan *diff.Plan) string  { return AlterTable(plan) }
func (g *Generator) DropTable(name string) string       { return DropTable(name) }
