package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sqlpipe/internal/core"
	"sqlpipe/internal/dialect"
	"sqlpipe/internal/output"
	"sqlpipe/internal/parser"
	"sqlpipe/internal/preflight"
	"sqlpipe/internal/query"
)

// parseCondition decodes the optional JSON condition argument. With no
// argument every row matches.
func parseCondition(args []string) (any, error) {
	if len(args) == 0 {
		return true, nil
	}
	var cond any
	if err := json.Unmarshal([]byte(args[0]), &cond); err != nil {
		return nil, fmt.Errorf("condition must be JSON: %w", err)
	}
	return cond, nil
}

func (a *app) findCmd() *cobra.Command {
	var fields []string
	var tail string
	cmd := &cobra.Command{
		Use:   "find <table> [condition-json]",
		Short: "Select rows matching a condition",
		Example: `  sqlpipe find users '{"active": true}' --fields id,name --tail "ORDER BY id LIMIT 10"
  sqlpipe find users '["$or", ["age", ">", 30], {"role": "admin"}]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := parseCondition(args[1:])
			if err != nil {
				return err
			}
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			rows, err := c.Find(ctx, args[0], cond, query.SelectOptions{Fields: fields, Tail: tail})
			if err != nil {
				return err
			}
			return a.printResult(cmd, &core.Result{Columns: fields, Rows: rows})
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Columns to select")
	cmd.Flags().StringVar(&tail, "tail", "", "Clauses appended after WHERE (ORDER BY, LIMIT)")
	return cmd
}

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <table> [condition-json]",
		Short: "Count rows matching a condition",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := parseCondition(args[1:])
			if err != nil {
				return err
			}
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := c.Count(ctx, args[0], cond)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatInt(n, 10))
			return nil
		},
	}
}

func (a *app) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a raw statement through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			res, err := c.Query(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printResult(cmd, res)
		},
	}
}

func (a *app) fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <table>",
		Short: "Show the live columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			cols, err := c.ShowFields(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printResult(cmd, columnsResult(cols))
		},
	}
}

func (a *app) indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes <table>",
		Short: "Show the live indexes of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			idx, err := c.ShowIndexes(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printResult(cmd, indexesResult(idx))
		},
	}
}

// writeFile creates path and fills it with write, reporting the first error
// from either.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func (a *app) planCmd() *cobra.Command {
	var outFile, rollbackFile string
	cmd := &cobra.Command{
		Use:   "plan <schema.toml|schema.sql>",
		Short: "Show the statements that reconcile the database with a schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			m, err := c.PlanSchema(ctx, tables)
			if err != nil {
				return err
			}
			m.Annotate(preflight.NewAnalyzer())

			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			if outFile == "" {
				if err := output.WriteMigration(formatter, m, cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				err := writeFile(outFile, func(w io.Writer) error { return output.WriteMigration(formatter, m, w) })
				if err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				a.printInfo(cmd, fmt.Sprintf("Output saved to %s", outFile))
			}

			if rollbackFile != "" {
				err := writeFile(rollbackFile, func(w io.Writer) error { return output.WriteRollback(m, w) })
				if err != nil {
					return fmt.Errorf("failed to write rollback output: %w", err)
				}
				a.printInfo(cmd, fmt.Sprintf("Rollback saved to %s", rollbackFile))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the migration")
	cmd.Flags().StringVarP(&rollbackFile, "rollback-output", "r", "", "Output file for rollback SQL (run separately)")
	return cmd
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <schema.toml|schema.sql>",
		Short: "Create or alter tables to match a schema file",
		Long: `Sync plans the reconciliation like "plan" and then applies it.

Destructive statements (dropped columns, dropped primary keys) are refused
unless --unsafe is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			m, err := c.PlanSchema(ctx, tables)
			if err != nil {
				return err
			}
			if m.Pending() == 0 {
				a.printInfo(cmd, "Schema is up to date")
				return nil
			}
			if err := c.Apply(ctx, m); err != nil {
				if errors.Is(err, preflight.ErrDestructive) {
					return fmt.Errorf("%w; nothing after this statement was applied", err)
				}
				return err
			}
			a.printInfo(cmd, fmt.Sprintf("Applied %d statement(s)", m.Pending()))
			return nil
		},
	}
}

func (a *app) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table (requires --unsafe)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, done, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if _, err := c.DropTable(ctx, args[0]); err != nil {
				return err
			}
			a.printInfo(cmd, fmt.Sprintf("Dropped %s", args[0]))
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <schema.toml|schema.sql>",
		Short: "Print the CREATE TABLE statements of a schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			gen, err := dialect.GetDialect(dialect.MySQL)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", gen.CreateTable(t))
			}
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <migration file>",
		Short: "Run preflight checks on a migration file without connecting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read migration file: %w", err)
			}

			analyzer := preflight.NewAnalyzer()
			statements := analyzer.SplitStatements(string(content))
			if len(statements) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No SQL statements found in migration file")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d statement(s) in %s\n", len(statements), args[0])

			res := analyzer.Check(statements...)
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", w.Level, w.Message)
			}
			if res.HasDestructive() && !a.unsafe {
				return fmt.Errorf("destructive operations detected; use --unsafe to allow these operations")
			}
			return nil
		},
	}
}

func (a *app) printResult(cmd *cobra.Command, res *core.Result) error {
	formatter, err := a.formatter()
	if err != nil {
		return err
	}
	out, err := formatter.FormatResult(res)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func columnsResult(cols []*core.Column) *core.Result {
	res := &core.Result{Columns: []string{"name", "type", "size", "null", "default", "autoIncrement", "key"}}
	for _, c := range cols {
		var def any
		if c.HasDefault {
			def = c.Default
		}
		res.Rows = append(res.Rows, core.Row{
			"name":          c.Name,
			"type":          c.Type,
			"size":          c.Size,
			"null":          c.Nullable,
			"default":       def,
			"autoIncrement": c.AutoIncrement,
			"key":           columnKey(c),
		})
	}
	return res
}

func columnKey(c *core.Column) string {
	switch {
	case c.Primary:
		return "PRI"
	case c.Unique:
		return "UNI"
	case c.Index:
		return "MUL"
	default:
		return ""
	}
}

func indexesResult(indexes []*core.Index) *core.Result {
	res := &core.Result{Columns: []string{"key", "fields", "primary", "unique", "fullText"}}
	for _, idx := range indexes {
		res.Rows = append(res.Rows, core.Row{
			"key":      idx.Name(),
			"fields":   idx.Fields,
			"primary":  idx.Primary,
			"unique":   idx.Unique,
			"fullText": idx.FullText,
		})
	}
	return res
}
