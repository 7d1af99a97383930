package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	tidbmysql "github.com/pingcap/tidb/pkg/parser/mysql"

	"sqlpipe/internal/core"
)

func convertCreateTable(stmt *ast.CreateTableStmt) *core.Table {
	table := &core.Table{
		Name:    stmt.Table.Name.O,
		Columns: make([]*core.Column, 0, len(stmt.Cols)),
	}

	for _, colDef := range stmt.Cols {
		col := newColumnFromDef(colDef)
		for _, opt := range colDef.Options {
			applyColumnOption(table, col, opt)
		}
		table.Columns = append(table.Columns, col)
	}

	for _, constraint := range stmt.Constraints {
		if idx := indexFromConstraint(constraint); idx != nil {
			table.Indexes = append(table.Indexes, idx)
		}
	}

	return table
}

func newColumnFromDef(colDef *ast.ColumnDef) *core.Column {
	raw := colDef.Tp.CompactStr()
	if tidbmysql.HasUnsignedFlag(colDef.Tp.GetFlag()) {
		raw += " unsigned"
	}
	if tidbmysql.HasZerofillFlag(colDef.Tp.GetFlag()) {
		raw += " zerofill"
	}
	typ, size := core.SplitType(raw)
	col := &core.Column{
		Name:     colDef.Name.Name.O,
		Type:     typ,
		Size:     size,
		Nullable: true,
	}
	if cs := colDef.Tp.GetCharset(); cs != "binary" {
		col.Charset = cs
	}
	return col
}

func applyColumnOption(table *core.Table, col *core.Column, opt *ast.ColumnOption) {
	if opt == nil {
		return
	}

	switch opt.Tp {
	case ast.ColumnOptionNotNull:
		col.Nullable = false
	case ast.ColumnOptionNull:
		col.Nullable = true
	case ast.ColumnOptionPrimaryKey:
		col.Nullable = false
		table.Indexes = append(table.Indexes, &core.Index{Fields: []string{col.Name}, Scalar: true, Primary: true})
	case ast.ColumnOptionUniqKey:
		table.Indexes = append(table.Indexes, &core.Index{Key: col.Name, Fields: []string{col.Name}, Scalar: true, Unique: true})
	case ast.ColumnOptionAutoIncrement:
		col.AutoIncrement = true
	case ast.ColumnOptionDefaultValue:
		col.HasDefault = true
		col.Default = defaultValue(opt.Expr)
	}
}

// defaultValue returns the Go value of a literal default, or the restored
// expression text (CURRENT_TIMESTAMP and friends) otherwise.
func defaultValue(expr ast.ExprNode) any {
	if v, ok := expr.(ast.ValueExpr); ok {
		switch x := v.GetValue().(type) {
		case nil, int64, uint64, float32, float64, string:
			return x
		case []byte:
			return string(x)
		case fmt.Stringer:
			return x.String()
		}
	}
	var sb strings.Builder
	if err := expr.Restore(format.NewRestoreCtx(format.RestoreKeyWordUppercase|format.RestoreNameBackQuotes, &sb)); err != nil {
		return nil
	}
	return strings.TrimSuffix(sb.String(), "()")
}

func indexFromConstraint(constraint *ast.Constraint) *core.Index {
	fields := make([]string, 0, len(constraint.Keys))
	for _, key := range constraint.Keys {
		if key.Column != nil {
			fields = append(fields, key.Column.Name.O)
		}
	}

	idx := &core.Index{Key: constraint.Name, Fields: fields, Scalar: len(fields) == 1}
	switch constraint.Tp {
	case ast.ConstraintPrimaryKey:
		idx.Key = ""
		idx.Primary = true
	case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		idx.Unique = true
	case ast.ConstraintFulltext:
		idx.FullText = true
	case ast.ConstraintIndex, ast.ConstraintKey:
	default:
		return nil
	}
	return idx
}
