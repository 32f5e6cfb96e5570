package dataset

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// prefixSeparator joins table and column names in result keys
const prefixSeparator = "__"

// frame is the working column set of one table during a derivation pass
type frame struct {
	keys []string
	cols map[string][]interface{}
}

func (f *frame) rows() int {
	if len(f.keys) == 0 {
		return 0
	}
	return len(f.cols[f.keys[0]])
}

// derivation is the state of a single pass. It owns a snapshot of the
// registered joins; the Dataset's own join list is never touched.
type derivation struct {
	ds       *Dataset
	prefixed bool
	pending  []JoinSpec
	consumed []bool
	visited  map[string]bool
	matches  int
}

// derive recomputes the result from scratch
func (d *Dataset) derive() (*Result, error) {
	start := time.Now()

	pass := &derivation{
		ds:       d,
		prefixed: len(d.joins) > 0,
		pending:  append([]JoinSpec(nil), d.joins...),
		consumed: make([]bool, len(d.joins)),
		visited:  make(map[string]bool),
	}

	f, err := pass.resolve(d.table)
	if err == nil {
		err = pass.checkConsumed()
	}
	elapsed := time.Since(start)

	if err != nil {
		if d.metrics != nil {
			d.metrics.RecordDerivation(elapsed, 0, 0, err)
		}
		d.logger.Debug("derivation failed",
			zap.String("table", d.table.Name()),
			zap.Error(err))
		return nil, err
	}

	result := newResult(f)
	if d.metrics != nil {
		d.metrics.RecordDerivation(elapsed, result.Len(), result.Width(), nil)
		d.metrics.RecordJoinMatches(pass.matches)
	}
	d.logger.Debug("dataset derived",
		zap.String("table", d.table.Name()),
		zap.Int("filters", len(d.filters)),
		zap.Int("groups", len(d.groups)),
		zap.Int("joins", len(d.joins)),
		zap.Int("rows", result.Len()),
		zap.Int("columns", result.Width()),
		zap.Duration("duration", elapsed))

	return result, nil
}

func (p *derivation) key(tableName, columnName string) string {
	if p.prefixed {
		return tableName + prefixSeparator + columnName
	}
	return columnName
}

// resolve builds the working columns of t: local filters, then local
// group-bys, then every join targeting t in registration order.
func (p *derivation) resolve(t *table.Table) (*frame, error) {
	name := t.Name()
	if p.visited[name] {
		return nil, errors.Newf(errors.ErrorTypeInvalidDataset,
			"join cycle: table %s is reached more than once", name)
	}
	p.visited[name] = true

	names, snapshot := t.Snapshot()
	f := &frame{
		keys: make([]string, len(names)),
		cols: make(map[string][]interface{}, len(names)),
	}
	for i, column := range names {
		k := p.key(name, column)
		f.keys[i] = k
		f.cols[k] = snapshot[column]
	}

	for _, spec := range p.ds.filters {
		if spec.TableName != name {
			continue
		}
		if err := applyFilter(f, p.key(name, spec.ColumnName), spec.Predicate); err != nil {
			return nil, err
		}
	}

	for _, spec := range p.ds.groups {
		if spec.TableName != name {
			continue
		}
		if err := p.applyGroupBy(f, p.key(name, spec.ColumnName), spec.Method); err != nil {
			return nil, err
		}
	}

	for i := range p.pending {
		if p.consumed[i] || p.pending[i].TargetTableName != name {
			continue
		}
		p.consumed[i] = true
		spec := p.pending[i]

		joined, err := p.resolve(spec.Table)
		if err != nil {
			return nil, err
		}
		f, err = p.merge(f, joined, p.key(name, spec.TargetColumnName), p.key(spec.Table.Name(), spec.ColumnName))
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// checkConsumed fails when a registered join was never reached from the base table
func (p *derivation) checkConsumed() error {
	for i, done := range p.consumed {
		if !done {
			spec := p.pending[i]
			return errors.Newf(errors.ErrorTypeInvalidDataset,
				"join of %s onto %s was never reached from table %s",
				spec.Table.Name(), spec.TargetTableName, p.ds.table.Name())
		}
	}
	return nil
}

// applyFilter drops every row whose value in column the predicate rejects
func applyFilter(f *frame, column string, pred *Predicate) error {
	values := f.cols[column]
	keep := make([]bool, len(values))
	dropped := 0
	for i, v := range values {
		ok, err := pred.Keep(v)
		if err != nil {
			return err
		}
		keep[i] = ok
		if !ok {
			dropped++
		}
	}
	if dropped == 0 {
		return nil
	}

	for _, k := range f.keys {
		src := f.cols[k]
		dst := make([]interface{}, 0, len(src)-dropped)
		for i, v := range src {
			if keep[i] {
				dst = append(dst, v)
			}
		}
		f.cols[k] = dst
	}
	return nil
}

// applyGroupBy collapses f to one row per distinct value of column, in order
// of first occurrence. Every other column is folded with method.
func (p *derivation) applyGroupBy(f *frame, column, method string) error {
	grouped := f.cols[column]

	var (
		distinct []interface{}
		buckets  [][]int
	)
	index := make(map[interface{}]int)
	for i, v := range grouped {
		k := value.Key(v)
		b, ok := index[k]
		if !ok {
			b = len(buckets)
			index[k] = b
			distinct = append(distinct, v)
			buckets = append(buckets, nil)
		}
		buckets[b] = append(buckets[b], i)
	}

	out := make(map[string][]interface{}, len(f.keys))
	for _, k := range f.keys {
		if k == column {
			out[k] = distinct
			continue
		}

		src := f.cols[k]
		aggregated := make([]interface{}, len(buckets))
		members := make([]interface{}, 0, len(grouped))
		for b, rows := range buckets {
			members = members[:0]
			for _, i := range rows {
				members = append(members, src[i])
			}
			folded, err := p.ds.registry.Fold(method, members)
			if err != nil {
				return errors.Wrap(err, errors.GetType(err),
					fmt.Sprintf("group by %s failed on column %s", column, k))
			}
			aggregated[b] = folded
		}
		out[k] = aggregated
	}

	f.cols = out
	return nil
}
