package preflight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpipe/internal/core"
	"sqlpipe/internal/middleware"
)

var analyzeTests = []struct {
	name              string
	sql               string
	wantDestructive   bool
	wantBlocking      bool
	wantStatementType string
}{
	{
		name:              "DROP TABLE is destructive",
		sql:               "DROP TABLE IF EXISTS `users`",
		wantDestructive:   true,
		wantStatementType: "DROP TABLE",
	},
	{
		name:              "TRUNCATE TABLE is destructive and blocking",
		sql:               "TRUNCATE TABLE users",
		wantDestructive:   true,
		wantBlocking:      true,
		wantStatementType: "TRUNCATE TABLE",
	},
	{
		name:              "DROP column without keyword",
		sql:               "ALTER TABLE `t`\nADD `c` INT NOT NULL,\nDROP `x`",
		wantDestructive:   true,
		wantBlocking:      true,
		wantStatementType: "ALTER TABLE",
	},
	{
		name:              "DROP PRIMARY KEY is destructive",
		sql:               "ALTER TABLE `t`\nDROP PRIMARY KEY,\nADD PRIMARY KEY (`a`, `b`)",
		wantDestructive:   true,
		wantBlocking:      true,
		wantStatementType: "ALTER TABLE",
	},
	{
		name:              "index changes only block",
		sql:               "ALTER TABLE `t`\nDROP INDEX `k`,\nADD UNIQUE `k` (`a`)",
		wantBlocking:      true,
		wantStatementType: "ALTER TABLE",
	},
	{
		name:              "CHANGE column only blocks",
		sql:               "ALTER TABLE `t`\nCHANGE `a` `a` VARCHAR(20) NOT NULL",
		wantBlocking:      true,
		wantStatementType: "ALTER TABLE",
	},
	{
		name:              "DELETE is data manipulation",
		sql:               "DELETE FROM `t` WHERE `id`=1",
		wantStatementType: "DELETE",
	},
	{
		name:              "CREATE TABLE",
		sql:               "CREATE TABLE `t`(\n`id` INT NOT NULL\n)",
		wantStatementType: "CREATE TABLE",
	},
	{
		name:              "SELECT",
		sql:               "SELECT * FROM `t` WHERE `x`=1",
		wantStatementType: "SELECT",
	},
	{
		name:              "unparseable",
		sql:               "THIS IS NOT SQL",
		wantStatementType: "UNPARSEABLE",
	},
}

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer()
	for _, tt := range analyzeTests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.sql)
			assert.Equal(t, tt.wantStatementType, got.StatementType)
			assert.Equal(t, tt.wantDestructive, got.IsDestructive)
			assert.Equal(t, tt.wantBlocking, got.IsBlocking)
			if tt.wantDestructive {
				assert.NotEmpty(t, got.DestructiveReason)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	res := NewAnalyzer().Check(
		"SELECT 1",
		"",
		"ALTER TABLE `t`\nDROP `x`",
	)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, WarnCaution, res.Warnings[0].Level)
	assert.Contains(t, res.Warnings[0].Message, "Potentially blocking DDL")
	assert.Equal(t, WarnDanger, res.Warnings[1].Level)
	assert.Equal(t, "ALTER TABLE `t`\nDROP `x`", res.Warnings[1].SQL)
	assert.True(t, res.HasDestructive())

	assert.False(t, NewAnalyzer().Check("SELECT 1").HasDestructive())
}

func TestGuard(t *testing.T) {
	exec := middleware.ExecutorFunc(func(_ context.Context, _ string) (*core.Result, error) {
		return &core.Result{AffectedRows: 1}, nil
	})

	t.Run("refuses destructive statements", func(t *testing.T) {
		p := middleware.New()
		p.UseSQL(middleware.VerbAny, Guard(NewAnalyzer(), GuardOptions{}))

		_, err := p.Dispatch(context.Background(), "DROP TABLE IF EXISTS `t`", exec)
		require.ErrorIs(t, err, ErrDestructive)

		var de *DestructiveError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "DROP TABLE IF EXISTS `t`", de.SQL)
		assert.Contains(t, err.Error(), "--unsafe")
	})

	t.Run("passes safe statements", func(t *testing.T) {
		p := middleware.New()
		p.UseSQL(middleware.VerbAny, Guard(NewAnalyzer(), GuardOptions{}))

		res, err := p.Dispatch(context.Background(), "ALTER TABLE `t`\nADD `c` INT NOT NULL", exec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.AffectedRows)
	})

	t.Run("allows destructive statements when unsafe", func(t *testing.T) {
		p := middleware.New()
		p.UseSQL(middleware.VerbAny, Guard(NewAnalyzer(), GuardOptions{AllowUnsafe: true}))

		_, err := p.Dispatch(context.Background(), "ALTER TABLE `t`\nDROP `x`", exec)
		assert.NoError(t, err)
	})
}
