package client

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpipe/internal/core"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/middleware"
	"sqlpipe/internal/migration"
	"sqlpipe/internal/query"
)

func newClient(t *testing.T, opts ...Option) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c, err := New(db, opts...)
	require.NoError(t, err)
	return c, mock
}

func fieldRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
}

func indexRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Table", "Non_unique", "Key_name", "Seq_in_index", "Column_name", "Index_type"})
}

func TestFind(t *testing.T) {
	c, mock := newClient(t)
	mock.ExpectQuery("SELECT * FROM `t` WHERE `x`=1").
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1)))

	rows, err := c.Find(context.Background(), "t", map[string]any{"x": 1}, query.SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"x": int64(1)}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOne(t *testing.T) {
	c, mock := newClient(t)
	mock.ExpectQuery("SELECT `id` FROM `t` WHERE (`id` > 5) ORDER BY id LIMIT 1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	row, err := c.FindOne(context.Background(), "t", []any{"id", ">", 5},
		query.SelectOptions{Fields: []string{"id"}, Tail: "ORDER BY id"})
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateIncrement(t *testing.T) {
	c, mock := newClient(t)
	mock.ExpectExec("UPDATE `t` SET `n`=`n`+(5) WHERE 1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := c.Update(context.Background(), "t", "1", map[string]any{"n": []any{"$incr", 5}}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.AffectedRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidRequestsSendNothing(t *testing.T) {
	c, mock := newClient(t)
	ctx := context.Background()

	_, err := c.Update(ctx, "t", "1", map[string]any{"n": []any{"$mul", 2}}, "")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = c.Insert(ctx, "t")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = c.Find(ctx, "t", 3.5, query.SelectOptions{})
	assert.ErrorIs(t, err, core.ErrInvalidCondition)

	_, err = c.CreateTable(ctx, &core.Table{Name: "t"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	type opaque struct{ ID int }
	_, err = c.Find(ctx, "t", []any{"id", opaque{1}}, query.SelectOptions{})
	assert.ErrorIs(t, err, core.ErrInvalidCondition)

	_, err = c.Find(ctx, "t", "", query.SelectOptions{})
	assert.ErrorIs(t, err, core.ErrInvalidCondition)

	_, err = c.Update(ctx, "t", map[string]any{"id": 1}, map[string]any{"v": opaque{2}}, "")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = c.Insert(ctx, "t", map[string]any{"v": opaque{3}})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAndCount(t *testing.T) {
	c, mock := newClient(t)
	mock.ExpectExec("INSERT INTO `t`(`a`) VALUES\n(1),\n(2)").
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectQuery("SELECT COUNT(*) AS `c` FROM `t` WHERE `a`=1").
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow([]byte("7")))

	ctx := context.Background()
	res, err := c.Insert(ctx, "t", map[string]any{"a": 1}, map[string]any{"a": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.InsertID)

	n, err := c.Count(ctx, "t", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreSQLStageResponds(t *testing.T) {
	c, mock := newClient(t)
	cached := &core.Result{Rows: []core.Row{{"id": 42}}}
	c.Use("select", func(_ context.Context, _ string) (middleware.Outcome, error) {
		return middleware.Respond(cached), nil
	})
	mock.ExpectExec("DELETE FROM `t` WHERE `id`=1").WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	rows, err := c.Find(ctx, "t", map[string]any{"x": 1}, query.SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, cached.Rows, rows)

	// Stages scoped to select leave other verbs alone.
	_, err = c.Delete(ctx, "t", map[string]any{"id": 1}, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreSQLStageRewrites(t *testing.T) {
	c, mock := newClient(t)
	h := c.Use(middleware.VerbAny, func(_ context.Context, sql string) (middleware.Outcome, error) {
		return middleware.Continue(sql + " FOR UPDATE"), nil
	})
	mock.ExpectQuery("SELECT * FROM `t` FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT * FROM `t`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ctx := context.Background()
	_, err := c.Find(ctx, "t", true, query.SelectOptions{})
	require.NoError(t, err)

	assert.True(t, h.Remove())
	_, err = c.Find(ctx, "t", true, query.SelectOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStagesCompose(t *testing.T) {
	c, mock := newClient(t)
	truncate := func(n int) middleware.ResultStage {
		return func(_ context.Context, _ string, res *core.Result) *core.Result {
			if len(res.Rows) > n {
				res.Rows = res.Rows[:n]
			}
			return res
		}
	}
	c.UseResult(truncate(3))
	c.UseResult(func(_ context.Context, _ string, res *core.Result) *core.Result {
		res.Rows = res.Rows[1:]
		return res
	})

	rs := sqlmock.NewRows([]string{"id"})
	for i := range 5 {
		rs.AddRow(int64(i))
	}
	mock.ExpectQuery("SELECT * FROM `t`").WillReturnRows(rs)

	rows, err := c.Find(context.Background(), "t", true, query.SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"id": int64(1)}, {"id": int64(2)}}, rows)
}

func TestErrorStages(t *testing.T) {
	c, mock := newClient(t)
	dbErr := errors.New("server gone")
	mock.ExpectQuery("SELECT * FROM `t`").WillReturnError(dbErr)
	mock.ExpectQuery("SELECT * FROM `u`").WillReturnError(dbErr)

	c.UseError(func(_ context.Context, sql string, err error) (*core.Result, error) {
		if sql == "SELECT * FROM `t`" {
			return &core.Result{Rows: []core.Row{{"fallback": true}}}, nil
		}
		return nil, nil
	})

	ctx := context.Background()
	rows, err := c.Find(ctx, "t", true, query.SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"fallback": true}}, rows)

	_, err = c.Find(ctx, "u", true, query.SelectOptions{})
	var execErr *core.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowFieldsAndIndexes(t *testing.T) {
	c, mock := newClient(t)
	mock.ExpectQuery("SHOW FIELDS FROM `t`").WillReturnRows(fieldRows().
		AddRow([]byte("id"), []byte("int"), []byte("NO"), []byte("PRI"), nil, []byte("auto_increment")))
	mock.ExpectQuery("SHOW INDEXES FROM `t`").WillReturnRows(indexRows().
		AddRow([]byte("t"), int64(0), []byte("PRIMARY"), int64(1), []byte("id"), []byte("BTREE")))

	ctx := context.Background()
	cols, err := c.ShowFields(ctx, "t")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "INT", cols[0].Type)
	assert.True(t, cols[0].Primary)
	assert.True(t, cols[0].AutoIncrement)

	idx, err := c.ShowIndexes(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []*core.Index{{Key: "PRIMARY", Fields: []string{"id"}, Scalar: true, Primary: true}}, idx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func desiredT() *core.Table {
	return &core.Table{
		Name: "t",
		Columns: []*core.Column{
			{Name: "id", Type: "int", AutoIncrement: true},
			{Name: "name", Type: "varchar", Size: "32", Nullable: true},
		},
		Indexes: []*core.Index{
			{Fields: []string{"id"}, Scalar: true, Primary: true},
			{Fields: []string{"name"}, Scalar: true},
		},
	}
}

func expectObservedT(mock sqlmock.Sqlmock) {
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SHOW FIELDS FROM `t`").WillReturnRows(fieldRows().
		AddRow([]byte("id"), []byte("int"), []byte("NO"), []byte("PRI"), nil, []byte("auto_increment")).
		AddRow([]byte("old"), []byte("varchar(8)"), []byte("YES"), []byte(""), nil, []byte("")))
	mock.ExpectQuery("SHOW INDEXES FROM `t`").WillReturnRows(indexRows().
		AddRow([]byte("t"), int64(0), []byte("PRIMARY"), int64(1), []byte("id"), []byte("BTREE")))
}

func TestUpdateTable(t *testing.T) {
	c, mock := newClient(t, WithDiffOptions(diff.Options{SkipUnchangedColumns: true}))
	expectObservedT(mock)
	mock.ExpectExec("ALTER TABLE `t`\nADD `name` VARCHAR(32) NULL,\nDROP `old`,\nADD INDEX (`name`)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	plan, err := c.UpdateTable(context.Background(), desiredT())
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Count(diff.AddColumn))
	assert.Equal(t, 1, plan.Count(diff.DropColumn))
	assert.Equal(t, 0, plan.Count(diff.ChangeColumn))
	assert.Equal(t, 1, plan.Count(diff.AddIndex))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTableLegacyChangesEveryColumn(t *testing.T) {
	c, mock := newClient(t)
	expectObservedT(mock)

	plan, stmt, err := c.PlanTable(context.Background(), desiredT())
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Count(diff.ChangeColumn))
	assert.Equal(t, "ALTER TABLE `t`\n"+
		"CHANGE `id` `id` INT NOT NULL AUTO_INCREMENT,\n"+
		"ADD `name` VARCHAR(32) NULL,\n"+
		"DROP `old`,\n"+
		"ADD INDEX (`name`)", stmt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTableUpToDate(t *testing.T) {
	c, mock := newClient(t, WithDiffOptions(diff.Options{SkipUnchangedColumns: true}))
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SHOW FIELDS FROM `t`").WillReturnRows(fieldRows().
		AddRow([]byte("id"), []byte("int"), []byte("NO"), []byte("PRI"), nil, []byte("auto_increment")))
	mock.ExpectQuery("SHOW INDEXES FROM `t`").WillReturnRows(indexRows().
		AddRow([]byte("t"), int64(0), []byte("PRIMARY"), int64(1), []byte("id"), []byte("BTREE")))

	desired := &core.Table{
		Name:    "t",
		Columns: []*core.Column{{Name: "id", Type: "int", AutoIncrement: true}},
		Indexes: []*core.Index{{Fields: []string{"id"}, Scalar: true, Primary: true}},
	}
	plan, err := c.UpdateTable(context.Background(), desired)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanSchemaAndApply(t *testing.T) {
	c, mock := newClient(t, WithDiffOptions(diff.Options{SkipUnchangedColumns: true}))
	mock.MatchExpectationsInOrder(false)

	missing := &mysql.MySQLError{Number: 1146, Message: "Table 'testdb.a' doesn't exist"}
	mock.ExpectQuery("SHOW FIELDS FROM `a`").WillReturnError(missing)
	mock.ExpectQuery("SHOW INDEXES FROM `a`").WillReturnError(missing)
	mock.ExpectQuery("SHOW FIELDS FROM `b`").WillReturnRows(fieldRows().
		AddRow([]byte("id"), []byte("int"), []byte("NO"), []byte(""), nil, []byte("")).
		AddRow([]byte("x"), []byte("int"), []byte("YES"), []byte(""), nil, []byte("")))
	mock.ExpectQuery("SHOW INDEXES FROM `b`").WillReturnRows(indexRows())

	tables := []*core.Table{
		{Name: "a", Columns: []*core.Column{{Name: "id", Type: "int"}}},
		{Name: "b", Columns: []*core.Column{{Name: "id", Type: "int"}}},
	}
	ctx := context.Background()
	before := Timestamp()
	m, err := c.PlanSchema(ctx, tables)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.GeneratedAt, before)
	assert.LessOrEqual(t, m.GeneratedAt, Timestamp())

	assert.Equal(t, 1, m.Count(migration.ActionCreate))
	assert.Equal(t, 1, m.Count(migration.ActionAlter))
	assert.Equal(t, []string{
		"CREATE TABLE `a`(\n`id` INT NOT NULL\n)",
		"ALTER TABLE `b`\nDROP `x`",
	}, m.SQLStatements())
	assert.Equal(t, []string{
		"ALTER TABLE `b`\nADD `x` INT NULL",
		"DROP TABLE IF EXISTS `a`",
	}, m.RollbackStatements())

	mock.ExpectExec("CREATE TABLE `a`(\n`id` INT NOT NULL\n)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `b`\nDROP `x`").WillReturnError(errors.New("lock wait timeout"))

	err = c.Apply(ctx, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `apply alter "b"`)
}

func TestPlanSchemaObserveError(t *testing.T) {
	c, mock := newClient(t)
	mock.MatchExpectationsInOrder(false)
	denied := &mysql.MySQLError{Number: 1142, Message: "SELECT command denied"}
	mock.ExpectQuery("SHOW FIELDS FROM `a`").WillReturnError(denied)
	mock.ExpectQuery("SHOW INDEXES FROM `a`").WillReturnError(denied)

	_, err := c.PlanSchema(context.Background(), []*core.Table{
		{Name: "a", Columns: []*core.Column{{Name: "id", Type: "int"}}},
	})
	assert.ErrorIs(t, err, denied)
}

func TestQueryNilResponse(t *testing.T) {
	c, _ := newClient(t)
	c.Use(middleware.VerbAny, func(context.Context, string) (middleware.Outcome, error) {
		return middleware.Respond(nil), nil
	})
	res, err := c.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, &core.Result{}, res)
}

func TestWithPipelineShares(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := middleware.New()
	a, err := New(db, WithPipeline(p))
	require.NoError(t, err)
	b, err := New(db, WithPipeline(p))
	require.NoError(t, err)

	a.UseResult(func(_ context.Context, _ string, res *core.Result) *core.Result { return res })
	_, results, _ := b.Pipeline().Len()
	assert.Equal(t, 1, results)
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in       any
		expected int64
	}{
		{nil, 0},
		{int64(4), 4},
		{4, 4},
		{uint64(5), 5},
		{float64(6), 6},
		{"12", 12},
		{[]byte("13"), 13},
	}
	for _, tt := range tests {
		n, err := toInt64(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, n)
	}

	_, err := toInt64("x")
	assert.Error(t, err)
	_, err = toInt64(struct{}{})
	assert.Error(t, err)
}
