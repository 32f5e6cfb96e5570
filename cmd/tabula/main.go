package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/internal/query"
	"github.com/ajitpratap0/tabula/pkg/aggregator"
	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/export"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
)

var version = "0.1.0"

const envPrefix = "TABULA"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "tabula",
		Short: "Tabula - derive filtered, grouped and joined views over in-memory tables",
		Long: `Tabula loads tables from CSV files or inline YAML, derives a dataset from
filters, group-bys and sort-merge joins, and writes the result as a text table,
JSON, CSV, Arrow, Parquet or Avro.

Every flag can also be set through a TABULA_* environment variable, e.g.
TABULA_LOG_LEVEL=debug or TABULA_FORMAT=csv.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(context.WithValue(cmd.Context(), logger.CommandKey, cmd.Name()))
		},
	}
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newVersionCmd(),
		newAggregatorsCmd(),
		newDescribeCmd(v),
		newQueryCmd(v),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tabula v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newAggregatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregators",
		Short: "List the aggregation methods available to group-by",
		Run: func(cmd *cobra.Command, args []string) {
			reg := aggregator.Default()
			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"method", "arity", "inputs"})
			tw.SetAutoFormatHeaders(false)
			for _, name := range reg.Names() {
				m, _ := reg.Get(name)
				inputs := make([]string, len(m.Inputs))
				for i, in := range m.Inputs {
					inputs[i] = in.String()
				}
				tw.Append([]string{name, strconv.Itoa(m.Arity()), strings.Join(inputs, ", ")})
			}
			tw.Render()
		},
	}
}

func newDescribeCmd(v *viper.Viper) *cobra.Command {
	var types map[string]string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the columns, inferred types and row count of a CSV file",
		Long: `Describe loads a CSV file as a table and prints one line per column.

Example:
  tabula describe --csv orders.csv --name orders --type amount=float`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := v.GetString("csv")
			if path == "" {
				return fmt.Errorf("--csv is required")
			}
			name := v.GetString("name")
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			if err := initLogger(v, logger.DefaultConfig()); err != nil {
				return err
			}
			log := logger.WithContext(context.WithValue(cmd.Context(), logger.TableKey, name))
			defer func() { _ = log.Sync() }()

			runner := query.NewRunner(query.WithLogger(log.Named("query")))
			t, err := runner.LoadTable(config.TableConfig{Name: name, Path: path, Types: types})
			if err != nil {
				return err
			}

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"column", "type", "nulls"})
			tw.SetAutoFormatHeaders(false)
			for _, column := range t.ColumnNames() {
				col, _ := t.Column(column)
				values := col.Values()
				nulls := 0
				for _, cell := range values {
					if cell == nil {
						nulls++
					}
				}
				tw.Append([]string{column, columnar.InferValuesType(values).String(), strconv.Itoa(nulls)})
			}
			tw.SetCaption(true, fmt.Sprintf("%s: %d rows", t.Name(), t.Count()))
			tw.Render()
			return nil
		},
	}

	cmd.Flags().String("csv", "", "Path to the CSV file (required)")
	cmd.Flags().String("name", "", "Table name (defaults to the file name)")
	cmd.Flags().StringToStringVar(&types, "type", nil, "Convert a column on load, e.g. --type amount=float")
	_ = v.BindPFlag("csv", cmd.Flags().Lookup("csv"))
	_ = v.BindPFlag("name", cmd.Flags().Lookup("name"))
	return cmd
}

func newQueryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Derive a dataset from a YAML query file and write the result",
		Long: `Query loads the tables named in a YAML configuration file, registers its
joins, filters and group-bys on a dataset and writes the derived result.

Output flags override the file's output section.

Example:
  tabula query --config orders.yaml --format parquet --output orders.parquet
  tabula query -c orders.yaml -f csv -o orders.csv --compress zstd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), v, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to the query YAML file (required)")
	cmd.Flags().StringP("format", "f", "", "Output format: "+formatNames())
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().String("compress", "", "Compress the output file: none, gzip, snappy, zstd, s2, lz4")
	cmd.Flags().Int("limit", 0, "Write at most this many rows (0 = all)")
	cmd.Flags().Bool("metrics", false, "Print derivation metrics to stderr")
	for _, name := range []string{"config", "format", "output", "compress", "limit", "metrics"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func formatNames() string {
	formats := export.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func runQuery(ctx context.Context, v *viper.Viper, stdout, stderr io.Writer) error {
	path := v.GetString("config")
	if path == "" {
		return fmt.Errorf("--config is required")
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	applyOverrides(v, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := initLogger(v, cfg.Logging); err != nil {
		return err
	}
	ctx = context.WithValue(ctx, logger.DatasetKey, cfg.Name)
	log := logger.WithContext(ctx).With(zap.String("component", "tabula-cli"))
	defer func() { _ = log.Sync() }()

	opts := []query.Option{
		query.WithLogger(log.Named("query")),
		query.WithBaseDir(filepath.Dir(path)),
	}
	var collector *metrics.Collector
	if cfg.Metrics.Enabled || cfg.Metrics.Print {
		collector = metrics.NewCollector(cfg.Name)
		opts = append(opts, query.WithMetrics(collector))
	}

	timer := metrics.NewTimer("query")
	ds, err := query.NewRunner(opts...).Run(ctx, cfg)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	exportOpts := export.Options{Limit: cfg.Output.Limit, Name: cfg.Name}
	result := ds.Result()

	if cfg.Output.Path == "" {
		err = export.Write(stdout, result, format, exportOpts)
	} else {
		var algorithm compression.Algorithm
		algorithm, err = compression.ParseAlgorithm(cfg.Output.Compression)
		if err == nil {
			err = export.WriteFile(cfg.Output.Path, result, format, algorithm, exportOpts)
		}
	}
	if err != nil {
		return err
	}

	log.Info("query completed",
		zap.String("format", string(format)),
		zap.String("output", cfg.Output.Path),
		zap.Int("rows", result.Len()),
		zap.Duration("duration", timer.Stop()))

	if collector != nil && cfg.Metrics.Print {
		return printMetrics(stderr, collector)
	}
	return nil
}

// applyOverrides copies explicitly set flags and TABULA_* variables over the
// file's output section
func applyOverrides(v *viper.Viper, cfg *config.Config) {
	if v.IsSet("format") {
		cfg.Output.Format = v.GetString("format")
	}
	if v.IsSet("output") {
		cfg.Output.Path = v.GetString("output")
	}
	if v.IsSet("compress") {
		cfg.Output.Compression = v.GetString("compress")
	}
	if v.IsSet("limit") {
		cfg.Output.Limit = v.GetInt("limit")
	}
	if v.IsSet("metrics") {
		cfg.Metrics.Print = v.GetBool("metrics")
	}
}

// initLogger installs the global logger, honouring --log-level
func initLogger(v *viper.Viper, cfg logger.Config) error {
	if level := v.GetString("log-level"); level != "" {
		cfg.Level = level
	}
	return logger.Init(cfg)
}

func printMetrics(w io.Writer, c *metrics.Collector) error {
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"metric", "value"})
	tw.SetAutoFormatHeaders(false)
	for _, name := range names {
		tw.Append([]string{name, strconv.FormatFloat(snap[name], 'g', -1, 64)})
	}
	tw.Render()
	return nil
}
