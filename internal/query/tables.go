package query

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// LoadTables loads every configured table, keyed by name
func (r *Runner) LoadTables(ctx context.Context, cfgs []config.TableConfig) (map[string]*table.Table, error) {
	tables := make(map[string]*table.Table, len(cfgs))
	for _, tc := range cfgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := tables[tc.Name]; dup {
			return nil, errors.Newf(errors.ErrorTypeConfig, "duplicate table name %s", tc.Name)
		}
		t, err := r.LoadTable(tc)
		if err != nil {
			return nil, err
		}
		tables[tc.Name] = t
	}
	return tables, nil
}

// LoadTable builds one table from its configuration. CSV tables are read
// from Path, inline tables from Columns and Data; Types is applied last.
func (r *Runner) LoadTable(tc config.TableConfig) (*table.Table, error) {
	var (
		t   *table.Table
		err error
	)
	if tc.Path != "" {
		path := tc.Path
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		t, err = table.ImportCSV(tc.Name, path)
	} else {
		t, err = table.New(tc.Name, tc.Columns)
		if err == nil && tc.Data != nil {
			err = t.Insert(tc.Data)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := convertColumns(t, tc.Types); err != nil {
		return nil, err
	}

	r.logger.Debug("table loaded",
		zap.String("table", tc.Name),
		zap.String("path", tc.Path),
		zap.Int("rows", t.Count()),
		zap.Strings("columns", t.ColumnNames()))
	return t, nil
}

func convertColumns(t *table.Table, types map[string]string) error {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return errors.Newf(errors.ErrorTypeConfig, "table %s has no column %s to convert", t.Name(), name).
				WithDetail("columns", t.ColumnNames())
		}
		for i, v := range col.Values() {
			converted, err := Convert(v, types[name])
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "column conversion failed").
					WithDetail("table", t.Name()).
					WithDetail("column", name).
					WithDetail("row", i)
			}
			col.Set(i, converted)
		}
	}
	return nil
}

// Convert converts v to the Go type for typ (see config.Type*). Blank text
// becomes nil for every type except string.
func Convert(v interface{}, typ string) (interface{}, error) {
	if s, ok := v.(string); ok && typ != config.TypeString {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v = s
	}
	if v == nil {
		return nil, nil
	}

	switch typ {
	case config.TypeString:
		return cast.ToStringE(v)
	case config.TypeInt:
		// cast parses strings with base 0, which would read "010" as octal
		if s, ok := v.(string); ok {
			return strconv.ParseInt(s, 10, 64)
		}
		return cast.ToInt64E(v)
	case config.TypeFloat:
		return cast.ToFloat64E(v)
	case config.TypeBool:
		return cast.ToBoolE(v)
	case config.TypeTime:
		return cast.ToTimeE(v)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown column type %q", typ)
	}
}
