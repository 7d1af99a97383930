package mysql

import (
	"context"
	"fmt"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect/mysql"
	"sqlpipe/internal/introspect"
)

// Indexes runs SHOW INDEXES and folds the per-column rows into indexes, in
// order of first appearance. Single-field indexes are reported in scalar
// form.
func (i *introspecter) Indexes(ctx context.Context, q introspect.Querier, table string) ([]*core.Index, error) {
	res, err := q.Query(ctx, "SHOW INDEXES FROM "+mysql.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("show indexes of %q: %w", table, err)
	}

	var indexes []*core.Index
	byName := make(map[string]*core.Index)
	for _, row := range res.Rows {
		r := normalizeRow(row, camelName)
		name := text(r["keyName"])
		column := text(r["columnName"])

		if idx, ok := byName[name]; ok {
			idx.Fields = append(idx.Fields, column)
			continue
		}

		idx := &core.Index{Key: name, Fields: []string{column}}
		idx.Primary = strings.EqualFold(name, "PRIMARY")
		idx.Unique = !idx.Primary && text(r["nonUnique"]) == "0"
		idx.FullText = !idx.Unique && strings.EqualFold(text(r["indexType"]), "FULLTEXT")

		byName[name] = idx
		indexes = append(indexes, idx)
	}

	for _, idx := range indexes {
		idx.Scalar = len(idx.Fields) == 1
	}
	return indexes, nil
}
