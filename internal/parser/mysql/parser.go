// Package mysql reads desired table schemas from MySQL CREATE TABLE
// statements, such as a schema dump. Statements other than CREATE TABLE are
// ignored.
package mysql

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"sqlpipe/internal/core"
)

type Parser struct {
	p *parser.Parser
}

func NewParser() *Parser {
	return &Parser{
		p: parser.New(),
	}
}

// Parse returns the tables declared in sql, in statement order.
func (p *Parser) Parse(sql string) ([]*core.Table, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL schema: %w", err)
	}

	var tables []*core.Table
	for _, stmtNode := range stmtNodes {
		createStmt, ok := stmtNode.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		table := convertCreateTable(createStmt)
		if err := table.Validate(); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return tables, nil
}
