// Package main contains the cli implementation of sqlpipe. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"sqlpipe/internal/client"
	"sqlpipe/internal/config"
	"sqlpipe/internal/diff"
	"sqlpipe/internal/metrics"
	"sqlpipe/internal/output"
	"sqlpipe/internal/preflight"
)

// app holds the persistent flags shared by every command.
type app struct {
	configPath  string
	verbose     bool
	format      string
	metricsFile string
	timeout     time.Duration
	unsafe      bool
	diffOpts    diff.Options

	registry *prometheus.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:          "sqlpipe",
		Short:        "MySQL query and schema reconciliation tool",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "sqlpipe.toml", "Path to the TOML connection config")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log every statement to stderr")
	flags.StringVarP(&a.format, "format", "f", "", "Output format: sql, json or summary")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.DurationVar(&a.timeout, "timeout", 5*time.Minute, "Overall command timeout")
	flags.BoolVarP(&a.unsafe, "unsafe", "u", false, "Allow destructive statements (DROP, TRUNCATE, etc.)")
	flags.BoolVar(&a.diffOpts.SkipUnchangedColumns, "skip-unchanged", true, "Do not emit CHANGE for columns that already match")
	flags.BoolVar(&a.diffOpts.FoldSingleFieldIndexes, "fold-indexes", false, "Treat scalar and one-element list indexes as equal")

	rootCmd.AddCommand(
		a.findCmd(),
		a.countCmd(),
		a.execCmd(),
		a.fieldsCmd(),
		a.indexesCmd(),
		a.planCmd(),
		a.syncCmd(),
		a.dropCmd(),
		renderCmd(),
		a.checkCmd(),
	)
	return rootCmd
}

func (a *app) logger(w io.Writer) *slog.Logger {
	if !a.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(a.format)
}

// connect opens a client configured from the flags. Destructive statements
// are refused by a preflight guard unless --unsafe is set.
func (a *app) connect(cmd *cobra.Command) (*client.Client, context.Context, func(), error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	logger := a.logger(cmd.ErrOrStderr())
	c, err := client.Open(ctx, cfg.MySQL, client.WithLogger(logger), client.WithDiffOptions(a.diffOpts))
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	c.Use("", preflight.Guard(preflight.NewAnalyzer(), preflight.GuardOptions{AllowUnsafe: a.unsafe, Logger: logger}))
	if a.metricsFile != "" {
		a.registry = prometheus.NewRegistry()
		coll, err := metrics.New(a.registry)
		if err != nil {
			cancel()
			_ = c.Close()
			return nil, nil, nil, err
		}
		coll.Attach(c.Pipeline())
	}

	done := func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close database connection", "err", err)
		}
		cancel()
		a.writeMetrics(cmd)
	}
	return c, ctx, done, nil
}

func (a *app) writeMetrics(cmd *cobra.Command) {
	if a.metricsFile == "" || a.registry == nil {
		return
	}
	if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed to write metrics: %v\n", err)
	}
}

// printInfo writes a status line. With JSON output it goes to stderr so
// stdout stays parseable.
func (a *app) printInfo(cmd *cobra.Command, msg string) {
	if strings.EqualFold(strings.TrimSpace(a.format), string(output.FormatJSON)) {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
}
