package toml

import (
	"fmt"
	"strings"

	"sqlpipe/internal/core"
)

// tomlIndex maps [[tables.indexes]]. Fields is either a single field name,
// which declares the index in scalar form, or a list of names.
type tomlIndex struct {
	Key      string `toml:"key"`
	Fields   any    `toml:"fields"`
	Primary  bool   `toml:"primary"`
	Unique   bool   `toml:"unique"`
	FullText bool   `toml:"fulltext"`
}

func convertIndex(ti *tomlIndex) (*core.Index, error) {
	if ti.Fields == nil {
		name := ti.Key
		if name == "" {
			name = "(unnamed)"
		}
		return nil, fmt.Errorf("index %s has no fields: %w", name, core.ErrInvalidArgument)
	}

	idx, err := core.ParseIndexSpec(ti.Fields)
	if err != nil {
		return nil, err
	}
	idx.Key = ti.Key
	idx.Primary = ti.Primary
	idx.Unique = ti.Unique
	idx.FullText = ti.FullText
	return idx, nil
}

// validateIndexes checks for duplicate names and verifies that every index
// field references an existing table column.
func validateIndexes(table *core.Table) error {
	seen := make(map[string]bool, len(table.Indexes))
	for _, idx := range table.Indexes {
		lower := strings.ToLower(idx.Name())
		if seen[lower] {
			return fmt.Errorf("duplicate index name %q: %w", idx.Name(), core.ErrInvalidArgument)
		}
		seen[lower] = true
	}

	for _, idx := range table.Indexes {
		for _, f := range idx.Fields {
			if table.FindColumn(f) == nil {
				return fmt.Errorf("index %q references nonexistent column %q: %w", idx.Name(), f, core.ErrInvalidArgument)
			}
		}
	}

	return nil
}
