package mysql

import (
	"context"
	"fmt"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
	"sqlpipe/internal/introspect"
)

// Fields runs SHOW FIELDS and returns the columns in table order.
func (i *introspecter) Fields(ctx context.Context, q introspect.Querier, table string) ([]*core.Column, error) {
	res, err := q.Query(ctx, "SHOW FIELDS FROM "+mysql.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("show fields of %q: %w", table, err)
	}

	cols := make([]*core.Column, 0, len(res.Rows))
	for _, row := range res.Rows {
		cols = append(cols, parseField(normalizeRow(row, strings.ToLower)))
	}
	return cols, nil
}

func parseField(r map[string]any) *core.Column {
	typ, size := core.SplitType(text(r["type"]))
	key := strings.ToUpper(text(r["key"]))

	col := &core.Column{
		Name:          text(r["field"]),
		Type:          typ,
		Size:          size,
		Nullable:      strings.EqualFold(text(r["null"]), "YES"),
		AutoIncrement: strings.Contains(strings.ToLower(text(r["extra"])), "auto_increment"),
		Primary:       key == "PRI",
		Unique:        key == "UNI",
		Index:         key == "MUL",
	}

	if d := r["default"]; d != nil {
		col.HasDefault = true
		col.Default = text(d)
	}

	return col
}
