// Package dataset derives filtered, grouped and joined views over tables.
//
// A Dataset starts as the identity view of its base table. Each call to
// Filter, GroupBy or Join validates the new operation against the tables
// already reachable, records it and recomputes the Result from scratch:
//
//	ds, _ := dataset.New(orders)
//	_ = ds.Join(customers, "id", "orders", "customer_id")
//	_ = ds.Filter("customers", "country", func(c string) bool { return c == "NZ" })
//	_ = ds.GroupBy("orders", "customer_id", aggregator.Sum)
//	rows := ds.Result().Len()
//
// Once a dataset has a join, result keys are prefixed with the table name
// ("orders__customer_id"). A Dataset is not safe for concurrent use.
package dataset

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/aggregator"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// Registration kinds, used in errors and rejection metrics
const (
	KindFilter  = "filter"
	KindGroupBy = "group_by"
	KindJoin    = "join"
)

// FilterSpec keeps the rows of TableName whose ColumnName value satisfies Predicate
type FilterSpec struct {
	TableName  string
	ColumnName string
	Predicate  *Predicate
}

// GroupSpec collapses TableName to one row per distinct ColumnName value,
// folding the other columns with the aggregation Method
type GroupSpec struct {
	TableName  string
	ColumnName string
	Method     string
}

// JoinSpec inner-joins Table on Table.ColumnName = TargetTableName.TargetColumnName
type JoinSpec struct {
	Table            *table.Table
	ColumnName       string
	TargetTableName  string
	TargetColumnName string
}

// Option configures a Dataset
type Option func(*Dataset)

// WithRegistry sets the aggregation registry used by group-bys
func WithRegistry(r *aggregator.Registry) Option {
	return func(d *Dataset) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithLogger sets the logger derivations are reported to
func WithLogger(l *zap.Logger) Option {
	return func(d *Dataset) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics records derivations and rejected registrations in c
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Dataset) {
		d.metrics = c
	}
}

// Dataset is a derived view over a base table and the tables joined to it
type Dataset struct {
	table   *table.Table
	filters []FilterSpec
	groups  []GroupSpec
	joins   []JoinSpec
	result  *Result

	registry *aggregator.Registry
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// New creates the identity dataset of t and derives its result
func New(t *table.Table, opts ...Option) (*Dataset, error) {
	if t == nil {
		return nil, errors.New(errors.ErrorTypeInvalidDataset, "a dataset requires a table")
	}

	d := &Dataset{
		table:    t,
		registry: aggregator.Default(),
		logger:   logger.Get().Named("dataset"),
	}
	for _, opt := range opts {
		opt(d)
	}

	result, err := d.derive()
	if err != nil {
		return nil, err
	}
	d.result = result
	return d, nil
}

// Table returns the base table
func (d *Dataset) Table() *table.Table {
	return d.table
}

// Filters returns the registered filters in registration order
func (d *Dataset) Filters() []FilterSpec {
	return append([]FilterSpec(nil), d.filters...)
}

// Groups returns the registered group-bys in registration order
func (d *Dataset) Groups() []GroupSpec {
	return append([]GroupSpec(nil), d.groups...)
}

// Joins returns the registered joins in registration order
func (d *Dataset) Joins() []JoinSpec {
	return append([]JoinSpec(nil), d.joins...)
}

// Result returns the current derived view
func (d *Dataset) Result() *Result {
	return d.result
}

// Registry returns the aggregation registry in use
func (d *Dataset) Registry() *aggregator.Registry {
	return d.registry
}

// Filter keeps only the rows of tableName whose columnName value satisfies fn.
// fn is a *Predicate or any func taking one value and returning bool.
func (d *Dataset) Filter(tableName, columnName string, fn interface{}) error {
	if err := d.checkReachable(KindFilter, tableName, columnName); err != nil {
		return d.reject(KindFilter, err)
	}
	pred, err := NewPredicate(fn)
	if err != nil {
		return d.reject(KindFilter, err)
	}

	d.filters = append(d.filters, FilterSpec{
		TableName:  tableName,
		ColumnName: columnName,
		Predicate:  pred,
	})
	if err := d.refresh(); err != nil {
		d.filters = d.filters[:len(d.filters)-1]
		return err
	}
	return nil
}

// GroupBy collapses tableName to one row per distinct columnName value and
// folds every other column of that table with method.
func (d *Dataset) GroupBy(tableName, columnName, method string) error {
	if err := d.checkReachable(KindGroupBy, tableName, columnName); err != nil {
		return d.reject(KindGroupBy, err)
	}
	if !d.registry.Has(method) {
		return d.reject(KindGroupBy, errors.Newf(errors.ErrorTypeInvalidDataset,
			"a group by was performed on a dataset with an invalid aggregation method %q", method).
			WithDetail("available", d.registry.Names()))
	}

	d.groups = append(d.groups, GroupSpec{
		TableName:  tableName,
		ColumnName: columnName,
		Method:     method,
	})
	if err := d.refresh(); err != nil {
		d.groups = d.groups[:len(d.groups)-1]
		return err
	}
	return nil
}

// Join inner-joins t onto the dataset where t.columnName equals
// targetTableName.targetColumnName. The target must be the base table or a
// table joined earlier; t itself must not already be part of the dataset.
func (d *Dataset) Join(t *table.Table, columnName, targetTableName, targetColumnName string) error {
	if t == nil {
		return d.reject(KindJoin, errors.New(errors.ErrorTypeInvalidDataset,
			"a join was performed without a table"))
	}
	if !t.HasColumn(columnName) {
		return d.reject(KindJoin, errors.Newf(errors.ErrorTypeInvalidDataset,
			"a join was performed with table %s that does not contain column %s", t.Name(), columnName))
	}
	if err := d.checkReachable(KindJoin, targetTableName, targetColumnName); err != nil {
		return d.reject(KindJoin, err)
	}
	if d.reachable(t.Name()) != nil {
		return d.reject(KindJoin, errors.Newf(errors.ErrorTypeInvalidDataset,
			"table %s is already part of the dataset; joining a table twice is not supported", t.Name()))
	}
	if err := d.checkKeys(t, columnName); err != nil {
		return d.reject(KindJoin, err)
	}

	d.joins = append(d.joins, JoinSpec{
		Table:            t,
		ColumnName:       columnName,
		TargetTableName:  targetTableName,
		TargetColumnName: targetColumnName,
	})
	if err := d.refresh(); err != nil {
		d.joins = d.joins[:len(d.joins)-1]
		return err
	}
	return nil
}

// reachable returns the base or joined table called name, or nil
func (d *Dataset) reachable(name string) *table.Table {
	if d.table.Name() == name {
		return d.table
	}
	for _, j := range d.joins {
		if j.Table.Name() == name {
			return j.Table
		}
	}
	return nil
}

// resultKeys maps every prefixed result key to the table contributing it
func (d *Dataset) resultKeys() map[string]string {
	keys := make(map[string]string)
	for _, column := range d.table.ColumnNames() {
		keys[d.table.Name()+prefixSeparator+column] = d.table.Name()
	}
	for _, j := range d.joins {
		for _, column := range j.Table.ColumnNames() {
			if column != j.ColumnName {
				keys[j.Table.Name()+prefixSeparator+column] = j.Table.Name()
			}
		}
	}
	return keys
}

// checkKeys rejects a join whose prefixed keys would shadow a key of a table
// already in the dataset, e.g. a.b__c against a__b.c
func (d *Dataset) checkKeys(t *table.Table, columnName string) error {
	keys := d.resultKeys()
	for _, column := range t.ColumnNames() {
		if column == columnName {
			continue
		}
		k := t.Name() + prefixSeparator + column
		if owner, ok := keys[k]; ok {
			return errors.Newf(errors.ErrorTypeInvalidDataset,
				"joining table %s would produce result key %s, which table %s already uses", t.Name(), k, owner).
				WithDetail("key", k)
		}
	}
	return nil
}

func (d *Dataset) checkReachable(kind, tableName, columnName string) error {
	t := d.reachable(tableName)
	if t == nil || !t.HasColumn(columnName) {
		return errors.Newf(errors.ErrorTypeInvalidDataset,
			"a %s was performed on a dataset without a matching table or column", strings.ReplaceAll(kind, "_", " ")).
			WithDetail("table", tableName).
			WithDetail("column", columnName)
	}
	return nil
}

func (d *Dataset) reject(kind string, err error) error {
	if d.metrics != nil {
		d.metrics.RecordRejection(kind)
	}
	d.logger.Debug("registration rejected", zap.String("kind", kind), zap.Error(err))
	return err
}

// refresh re-derives the result, keeping the previous one on failure
func (d *Dataset) refresh() error {
	result, err := d.derive()
	if err != nil {
		return err
	}
	d.result = result
	return nil
}
