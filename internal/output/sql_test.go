package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/migration"
)

func TestSQLFormatterFormatMigration(t *testing.T) {
	out, err := sqlFormatter{}.FormatMigration(sampleMigration())
	require.NoError(t, err)

	assert.Contains(t, out, "-- sqlpipe migration\n-- Review before")
	assert.Contains(t, out, "-- BREAKING CHANGES (manual review required)\n-- - ALTER TABLE drops column\n")
	assert.Contains(t, out, "-- NOTES\n-- - Potentially blocking DDL: ADD COLUMN\n")
	assert.Contains(t, out, "-- [create] a\nCREATE TABLE `a`(\n`id` INT NOT NULL\n);\n")
	assert.Contains(t, out, "-- [alter] b\nALTER TABLE `b`\nADD `y` INT NULL,\nDROP `x`,\nADD INDEX (`y`);\n")
	assert.NotContains(t, out, "] c\n")
	assert.Contains(t, out, "-- ROLLBACK SQL (run separately)\n-- ALTER TABLE `b`\n-- DROP `y`,\n-- ADD `x` INT NULL;\n-- DROP TABLE IF EXISTS `a`;\n")
}

func TestSQLFormatterGeneratedAt(t *testing.T) {
	m := sampleMigration()
	m.GeneratedAt = 1700000000

	out, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)
	assert.Contains(t, out, "-- sqlpipe migration\n-- Generated at: 2023-11-14T22:13:20Z\n")
}

func TestSQLFormatterFormatMigrationEmpty(t *testing.T) {
	f := sqlFormatter{}
	out, err := f.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Contains(t, out, "-- No SQL statements generated.")
	assert.NotContains(t, out, "ROLLBACK")

	out, err = f.FormatMigration(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLFormatterFormatPlan(t *testing.T) {
	f := sqlFormatter{}
	out, err := f.FormatPlan(samplePlan())
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `b`\nADD `y` INT NULL,\nDROP `x`,\nADD INDEX (`y`);\n", out)

	out, err = f.FormatPlan(&diff.Plan{Table: "b"})
	require.NoError(t, err)
	assert.Equal(t, "-- No changes.\n", out)
}

func TestSQLFormatterFormatResult(t *testing.T) {
	f := sqlFormatter{}
	out, err := f.FormatResult(&core.Result{
		Columns: []string{"id", "name"},
		Rows:    []core.Row{{"id": int64(1), "name": "a"}, {"id": int64(2), "name": nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, "id  name\n1   a\n2   NULL\n-- 2 rows\n", out)

	out, err = f.FormatResult(&core.Result{AffectedRows: 3, InsertID: 9})
	require.NoError(t, err)
	assert.Equal(t, "-- affected rows: 3, insert id: 9\n", out)
}

func TestFormatRollbackSQL(t *testing.T) {
	out := FormatRollbackSQL(sampleMigration())
	assert.Contains(t, out, "-- sqlpipe rollback")
	assert.Contains(t, out, "-- SQL\nALTER TABLE `b`\nDROP `y`,\nADD `x` INT NULL;\nDROP TABLE IF EXISTS `a`;\n")

	out = FormatRollbackSQL(&migration.Migration{})
	assert.Contains(t, out, "-- No rollback statements generated.")
	assert.Empty(t, FormatRollbackSQL(nil))
}

func TestWriteMigrationAndRollback(t *testing.T) {
	m := sampleMigration()

	var up bytes.Buffer
	require.NoError(t, WriteMigration(sqlFormatter{}, m, &up))
	expected, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)
	assert.Equal(t, expected, up.String())

	var down bytes.Buffer
	require.NoError(t, WriteRollback(m, &down))
	assert.Equal(t, FormatRollbackSQL(m), down.String())
}
