package toml

import (
	"fmt"
	"strings"

	"sqlpipe/internal/core"
)

// tomlColumn maps [[tables.columns]].
type tomlColumn struct {
	Name          string `toml:"name"`
	Type          string `toml:"type"`
	Charset       string `toml:"charset"`
	Null          bool   `toml:"null"`
	AutoIncrement bool   `toml:"auto_increment"`

	// Size accepts a number (size = 11) or a string (size = "10,2").
	Size any `toml:"size"`

	// Default accepts a string, bool or number. TOML has no null, so an
	// explicit DEFAULT NULL is spelled default_null = true.
	Default     any  `toml:"default"`
	DefaultNull bool `toml:"default_null"`
}

func convertColumn(tc *tomlColumn) *core.Column {
	col := &core.Column{
		Name:          strings.TrimSpace(tc.Name),
		Type:          strings.TrimSpace(tc.Type),
		Charset:       tc.Charset,
		Nullable:      tc.Null,
		AutoIncrement: tc.AutoIncrement,
	}

	if tc.Size != nil {
		col.Size = strings.TrimSpace(fmt.Sprint(tc.Size))
	}

	switch {
	case tc.DefaultNull:
		col.HasDefault = true
	case tc.Default != nil:
		col.HasDefault = true
		col.Default = tc.Default
	}

	return col
}
