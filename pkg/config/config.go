package config

import (
	"fmt"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
)

// Filter operators understood by the query builder
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpLt       = "lt"
	OpLe       = "le"
	OpGt       = "gt"
	OpGe       = "ge"
	OpIn       = "in"
	OpContains = "contains"
	OpPrefix   = "prefix"
)

// Output formats
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatJSONL   = "jsonl"
	FormatCSV     = "csv"
	FormatArrow   = "arrow"
	FormatParquet = "parquet"
	FormatAvro    = "avro"
)

// Column types a CSV column can be converted to on load
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeTime   = "time"
)

var (
	validOps = map[string]bool{
		OpEq: true, OpNe: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
		OpIn: true, OpContains: true, OpPrefix: true,
	}
	validFormats = map[string]bool{
		FormatTable: true, FormatJSON: true, FormatJSONL: true, FormatCSV: true,
		FormatArrow: true, FormatParquet: true, FormatAvro: true,
	}
	validTypes = map[string]bool{
		TypeString: true, TypeInt: true, TypeFloat: true, TypeBool: true, TypeTime: true,
	}
	validCompression = map[string]bool{
		"": true, "none": true, "gzip": true, "snappy": true, "zstd": true, "s2": true, "lz4": true,
	}
)

// Config is the top level description of a tabula run: which tables to load,
// the query to derive over them and where the result goes.
type Config struct {
	// Name labels logs and metrics for this run
	Name string `yaml:"name" json:"name"`

	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging"`

	// Metrics controls derivation metrics
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tables are loaded before the query runs
	Tables []TableConfig `yaml:"tables" json:"tables"`

	// Query is the dataset to derive
	Query QueryConfig `yaml:"query" json:"query"`

	// Output selects the result format and destination
	Output OutputConfig `yaml:"output" json:"output"`
}

// MetricsConfig controls derivation metrics
type MetricsConfig struct {
	// Enabled attaches a metrics collector to the dataset
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Print writes a metrics summary to stderr after the run
	Print bool `yaml:"print" json:"print"`
}

// TableConfig describes one table. Either Path names a CSV file, or Columns
// and Data define the table inline. Types converts text columns on load,
// e.g. {"amount": "float"}.
type TableConfig struct {
	Name    string                   `yaml:"name" json:"name"`
	Path    string                   `yaml:"path,omitempty" json:"path,omitempty"`
	Columns []string                 `yaml:"columns,omitempty" json:"columns,omitempty"`
	Data    map[string][]interface{} `yaml:"data,omitempty" json:"data,omitempty"`
	Types   map[string]string        `yaml:"types,omitempty" json:"types,omitempty"`
}

// QueryConfig is a declarative dataset: a base table plus joins, filters and
// group-bys, applied in that order.
type QueryConfig struct {
	Table   string         `yaml:"table" json:"table"`
	Joins   []JoinConfig   `yaml:"joins,omitempty" json:"joins,omitempty"`
	Filters []FilterConfig `yaml:"filters,omitempty" json:"filters,omitempty"`
	GroupBy []GroupConfig  `yaml:"group_by,omitempty" json:"group_by,omitempty"`
}

// JoinConfig joins Table.Column onto Target.TargetColumn
type JoinConfig struct {
	Table        string `yaml:"table" json:"table"`
	Column       string `yaml:"column" json:"column"`
	Target       string `yaml:"target" json:"target"`
	TargetColumn string `yaml:"target_column" json:"target_column"`
}

// FilterConfig keeps rows where Column <Op> Value holds. The in operator
// uses Values instead of Value.
type FilterConfig struct {
	Table  string        `yaml:"table" json:"table"`
	Column string        `yaml:"column" json:"column"`
	Op     string        `yaml:"op" json:"op"`
	Value  interface{}   `yaml:"value,omitempty" json:"value,omitempty"`
	Values []interface{} `yaml:"values,omitempty" json:"values,omitempty"`
}

// GroupConfig groups Table by Column, folding other columns with Method
type GroupConfig struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
	Method string `yaml:"method" json:"method"`
}

// OutputConfig selects how the result is written
type OutputConfig struct {
	// Format is one of table, json, jsonl, csv, arrow, parquet, avro
	Format string `yaml:"format" json:"format"`
	// Path is the output file; empty writes to stdout
	Path string `yaml:"path" json:"path"`
	// Compression is applied to file output (gzip, snappy, zstd, s2, lz4)
	Compression string `yaml:"compression" json:"compression"`
	// Limit caps the number of rows written (0 = all)
	Limit int `yaml:"limit" json:"limit"`
}

// Default returns a configuration with every section set to its default
func Default() *Config {
	return &Config{
		Name:    "tabula",
		Logging: logger.DefaultConfig(),
		Output: OutputConfig{
			Format: FormatTable,
		},
	}
}

// Validate checks the configuration for structural errors. It does not load
// any table, so column names are checked later by the dataset itself.
func (c *Config) Validate() error {
	tables := make(map[string]bool, len(c.Tables))
	for i, t := range c.Tables {
		if t.Name == "" {
			return invalid("tables[%d]: name is required", i)
		}
		if tables[t.Name] {
			return invalid("tables[%d]: duplicate table name %s", i, t.Name)
		}
		tables[t.Name] = true

		if t.Path == "" && len(t.Columns) == 0 {
			return invalid("table %s: either path or columns is required", t.Name)
		}
		if t.Path != "" && len(t.Columns) > 0 {
			return invalid("table %s: path and columns are mutually exclusive", t.Name)
		}
		for column, typ := range t.Types {
			if !validTypes[typ] {
				return invalid("table %s: column %s has unknown type %q", t.Name, column, typ)
			}
		}
	}

	q := c.Query
	if q.Table == "" {
		return invalid("query: table is required")
	}
	if !tables[q.Table] {
		return invalid("query: table %s is not defined", q.Table)
	}
	for i, j := range q.Joins {
		if !tables[j.Table] {
			return invalid("query.joins[%d]: table %s is not defined", i, j.Table)
		}
		if j.Column == "" || j.Target == "" || j.TargetColumn == "" {
			return invalid("query.joins[%d]: column, target and target_column are required", i)
		}
	}
	for i, f := range q.Filters {
		if f.Table == "" || f.Column == "" {
			return invalid("query.filters[%d]: table and column are required", i)
		}
		if !validOps[f.Op] {
			return invalid("query.filters[%d]: unknown operator %q", i, f.Op)
		}
		if f.Op == OpIn && len(f.Values) == 0 {
			return invalid("query.filters[%d]: operator in requires values", i)
		}
	}
	for i, g := range q.GroupBy {
		if g.Table == "" || g.Column == "" || g.Method == "" {
			return invalid("query.group_by[%d]: table, column and method are required", i)
		}
	}

	if !validFormats[c.Output.Format] {
		return invalid("output: unknown format %q", c.Output.Format)
	}
	if !validCompression[c.Output.Compression] {
		return invalid("output: unknown compression %q", c.Output.Compression)
	}
	if c.Output.Compression != "" && c.Output.Compression != "none" && c.Output.Path == "" {
		return invalid("output: compression requires a path")
	}
	if c.Output.Limit < 0 {
		return invalid("output: limit cannot be negative")
	}
	return nil
}

// Table returns the table configuration called name
func (c *Config) Table(name string) (TableConfig, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableConfig{}, false
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.ErrorTypeConfig, fmt.Sprintf(format, args...))
}
