package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorError(t *testing.T) {
	t.Run("error with field", func(t *testing.T) {
		err := &ValidationError{
			Entity:  "column",
			Name:    "email",
			Field:   "Type",
			Message: "column type is empty",
		}
		expected := `validation error in column "email" field "Type": column type is empty`
		assert.Equal(t, expected, err.Error())
	})

	t.Run("error without field", func(t *testing.T) {
		err := &ValidationError{
			Entity:  "table",
			Name:    "users",
			Message: "table has no columns",
		}
		expected := `validation error in table "users": table has no columns`
		assert.Equal(t, expected, err.Error())
	})

	t.Run("matches invalid argument", func(t *testing.T) {
		var err error = &ValidationError{Entity: "table", Message: "table is nil"}
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
}

func TestTableValidate(t *testing.T) {
	for _, tc := range tableValidateCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.table.Validate()
			if tc.wantErrContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErrContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

var tableValidateCases = []struct {
	name            string
	table           *Table
	wantErrContains string
}{
	{
		name:            "nil table",
		table:           nil,
		wantErrContains: "table is nil",
	},
	{
		name: "valid table",
		table: &Table{
			Name: "users",
			Columns: []*Column{
				{Name: "id", Type: "int", AutoIncrement: true},
				{Name: "email", Type: "varchar", Size: "255"},
			},
			Indexes: []*Index{
				{Fields: []string{"id"}, Scalar: true, Primary: true},
				{Fields: []string{"email"}, Unique: true},
			},
		},
	},
	{
		name:            "empty name",
		table:           &Table{Name: " ", Columns: []*Column{{Name: "id", Type: "int"}}},
		wantErrContains: "table name is empty",
	},
	{
		name:            "no columns",
		table:           &Table{Name: "t"},
		wantErrContains: "table has no columns",
	},
	{
		name: "duplicate column names differ in case",
		table: &Table{Name: "t", Columns: []*Column{
			{Name: "id", Type: "int"},
			{Name: "ID", Type: "int"},
		}},
		wantErrContains: `duplicate column name "ID"`,
	},
	{
		name:            "column without type",
		table:           &Table{Name: "t", Columns: []*Column{{Name: "id"}}},
		wantErrContains: "column type is empty",
	},
	{
		name: "default null on not null column",
		table: &Table{Name: "t", Columns: []*Column{
			{Name: "v", Type: "int", HasDefault: true},
		}},
		wantErrContains: "DEFAULT NULL on a NOT NULL column",
	},
	{
		name: "index without fields",
		table: &Table{
			Name:    "t",
			Columns: []*Column{{Name: "id", Type: "int"}},
			Indexes: []*Index{{Key: "k"}},
		},
		wantErrContains: "index has no fields",
	},
	{
		name: "index with two kinds",
		table: &Table{
			Name:    "t",
			Columns: []*Column{{Name: "id", Type: "int"}},
			Indexes: []*Index{{Fields: []string{"id"}, Primary: true, Unique: true}},
		},
		wantErrContains: "at most one of primary, unique and fullText",
	},
	{
		name: "two primary keys",
		table: &Table{
			Name:    "t",
			Columns: []*Column{{Name: "id", Type: "int"}, {Name: "x", Type: "int"}},
			Indexes: []*Index{
				{Fields: []string{"id"}, Primary: true},
				{Fields: []string{"x"}, Primary: true},
			},
		},
		wantErrContains: "more than one primary key",
	},	{
		name: "list default",
		table: &Table{
			Name:    "t",
			Columns: []*Column{{Name: "tags", Type: "varchar", HasDefault: true, Default: []any{"a", "b"}}},
		},
		wantErrContains: "unsupported default value of type []interface {}",
	},
	{
		name: "nan default",
		table: &Table{
			Name:    "t",
			Columns: []*Column{{Name: "r", Type: "double", HasDefault: true, Default: math.NaN()}},
		},
		wantErrContains: "unsupported default value",
	},
	{
		name: "scalar defaults",
		table: &Table{
			Name: "t",
			Columns: []*Column{
				{Name: "a", Type: "int", HasDefault: true, Default: int64(3)},
				{Name: "b", Type: "double", HasDefault: true, Default: 1.5},
				{Name: "c", Type: "varchar", HasDefault: true, Default: "x"},
				{Name: "d", Type: "tinyint", HasDefault: true, Default: true},
			},
		},
	},
}
