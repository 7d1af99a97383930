package toml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpipe/internal/core"
)

const usersSchema = `
[[tables]]
name = "users"

[[tables.columns]]
name = "id"
type = "int"
size = 11
auto_increment = true

[[tables.columns]]
name = "email"
type = "varchar"
size = "255"
charset = "utf8mb4"

[[tables.columns]]
name = "score"
type = "double"
null = true
default = 0

[[tables.columns]]
name = "note"
type = "text"
null = true
default_null = true

[[tables.indexes]]
fields = "id"
primary = true

[[tables.indexes]]
key = "uk_email"
fields = ["email"]
unique = true

[[tables]]
name = "tags"

[[tables.columns]]
name = "name"
type = "varchar(64)"
`

func TestParse(t *testing.T) {
	tables, err := NewParser().Parse(strings.NewReader(usersSchema))
	require.NoError(t, err)
	require.Len(t, tables, 2)

	users := tables[0]
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, []string{"id", "email", "score", "note"}, users.ColumnNames())

	assert.Equal(t, &core.Column{Name: "id", Type: "int", Size: "11", AutoIncrement: true}, users.Columns[0])
	assert.Equal(t, &core.Column{Name: "email", Type: "varchar", Size: "255", Charset: "utf8mb4"}, users.Columns[1])
	assert.Equal(t, &core.Column{Name: "score", Type: "double", Nullable: true, HasDefault: true, Default: int64(0)}, users.Columns[2])
	assert.Equal(t, &core.Column{Name: "note", Type: "text", Nullable: true, HasDefault: true}, users.Columns[3])

	require.Len(t, users.Indexes, 2)
	assert.Equal(t, &core.Index{Fields: []string{"id"}, Scalar: true, Primary: true}, users.Indexes[0])
	assert.Equal(t, &core.Index{Key: "uk_email", Fields: []string{"email"}, Unique: true}, users.Indexes[1])

	assert.Equal(t, "tags", tables[1].Name)
	assert.Empty(t, tables[1].Indexes)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.toml")
	require.NoError(t, os.WriteFile(path, []byte(usersSchema), 0o644))

	tables, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, tables, 2)

	_, err = NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "malformed toml",
			input:   `[[tables]`,
			wantErr: "decode error",
		},
		{
			name: "unknown key",
			input: `[[tables]]
name = "t"
engine = "InnoDB"`,
			wantErr: "unknown key",
		},
		{
			name: "table without columns",
			input: `[[tables]]
name = "t"`,
			wantErr: "table has no columns",
		},
		{
			name: "duplicate column",
			input: `[[tables]]
name = "t"
[[tables.columns]]
name = "a"
type = "int"
[[tables.columns]]
name = "A"
type = "int"`,
			wantErr: "duplicate column",
		},
		{
			name: "index without fields",
			input: `[[tables]]
name = "t"
[[tables.columns]]
name = "a"
type = "int"
[[tables.indexes]]
key = "k"`,
			wantErr: "has no fields",
		},
		{
			name: "index on missing column",
			input: `[[tables]]
name = "t"
[[tables.columns]]
name = "a"
type = "int"
[[tables.indexes]]
fields = ["a", "b"]`,
			wantErr: "nonexistent column",
		},
		{
			name: "duplicate table",
			input: `[[tables]]
name = "t"
[[tables.columns]]
name = "a"
type = "int"
[[tables]]
name = "T"
[[tables.columns]]
name = "a"
type = "int"`,
			wantErr: "duplicate table",
		},
		{
			name: "default null on not null column",
			input: `[[tables]]
name = "t"
[[tables.columns]]
name = "a"
type = "int"
default_null = true`,
			wantErr: "DEFAULT NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
