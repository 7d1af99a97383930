// Package toml reads desired table schemas from the sqlpipe TOML schema
// format:
//
//	[[tables]]
//	name = "users"
//
//	[[tables.columns]]
//	name = "id"
//	type = "int"
//	size = 11
//	auto_increment = true
//
//	[[tables.indexes]]
//	fields = "id"
//	primary = true
//
// Every table is converted to a core.Table and validated.
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"sqlpipe/internal/core"
)

// schemaFile is the top-level TOML document.
type schemaFile struct {
	Tables []tomlTable `toml:"tables"`
}

// tomlTable maps [[tables]].
type tomlTable struct {
	Name    string       `toml:"name"`
	Columns []tomlColumn `toml:"columns"`
	Indexes []tomlIndex  `toml:"indexes"`
}

// Parser reads sqlpipe TOML schema files.
type Parser struct{}

// NewParser creates a new TOML schema parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a TOML schema.
func (p *Parser) ParseFile(path string) ([]*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from r and returns the tables it declares, in
// file order.
func (p *Parser) Parse(r io.Reader) ([]*core.Table, error) {
	var sf schemaFile
	md, err := toml.NewDecoder(r).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("toml: unknown key %q: %w", undecoded[0].String(), core.ErrInvalidArgument)
	}

	seen := make(map[string]bool, len(sf.Tables))
	tables := make([]*core.Table, 0, len(sf.Tables))
	for i := range sf.Tables {
		tt := &sf.Tables[i]
		t, err := convertTable(tt)
		if err != nil {
			return nil, fmt.Errorf("toml: table %q: %w", tt.Name, err)
		}
		lower := strings.ToLower(t.Name)
		if seen[lower] {
			return nil, fmt.Errorf("toml: duplicate table %q: %w", t.Name, core.ErrInvalidArgument)
		}
		seen[lower] = true
		tables = append(tables, t)
	}

	return tables, nil
}

func convertTable(tt *tomlTable) (*core.Table, error) {
	t := &core.Table{
		Name:    strings.TrimSpace(tt.Name),
		Columns: make([]*core.Column, 0, len(tt.Columns)),
	}

	for i := range tt.Columns {
		t.Columns = append(t.Columns, convertColumn(&tt.Columns[i]))
	}

	for i := range tt.Indexes {
		idx, err := convertIndex(&tt.Indexes[i])
		if err != nil {
			return nil, err
		}
		t.Indexes = append(t.Indexes, idx)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateIndexes(t); err != nil {
		return nil, err
	}
	return t, nil
}
