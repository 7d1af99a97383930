package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFileByExtension(t *testing.T) {
	tomlPath := writeFile(t, "schema.toml", `
[[tables]]
name = "t"
[[tables.columns]]
name = "a"
type = "int"
`)
	tables, err := ParseFile(tomlPath)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "t", tables[0].Name)

	sqlPath := writeFile(t, "schema.SQL", "CREATE TABLE t (a INT);")
	tables, err = ParseFile(sqlPath)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"a"}, tables[0].ColumnNames())
}

func TestParseFileUnsupported(t *testing.T) {
	_, err := ParseFile("schema.yaml")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "schema.yaml", unsupported.Path)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}
