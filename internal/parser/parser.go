// Package parser reads desired table schemas from schema files. The format
// is chosen by file extension: .toml for the sqlpipe TOML format, .sql for
// MySQL CREATE TABLE statements.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sqlpipe/internal/core"
	"sqlpipe/internal/parser/mysql"
	"sqlpipe/internal/parser/toml"
)

func ParseFile(path string) ([]*core.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser().ParseFile(path)
	case ".sql":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema %q: %w", path, err)
		}
		return mysql.NewParser().Parse(string(data))
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
