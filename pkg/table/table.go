// Package table implements named collections of equal-length columns
package table

import (
	"sync"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Table stores rows by column. All columns always share the table's row count.
type Table struct {
	mu      sync.RWMutex
	name    string
	columns map[string]*columnar.Column
	order   []string
	count   int
}

// New creates a table with one nil-defaulted column per name
func New(name string, columnNames []string) (*Table, error) {
	t := &Table{
		name:    name,
		columns: make(map[string]*columnar.Column, len(columnNames)),
		order:   make([]string, 0, len(columnNames)),
	}
	for _, columnName := range columnNames {
		if err := t.AddColumn(columnName, nil); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Count returns the number of rows
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Columns returns the table's columns keyed by name. The map is a copy but
// the columns are shared; callers must treat them as read-only.
func (t *Table) Columns() map[string]*columnar.Column {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]*columnar.Column, len(t.columns))
	for name, col := range t.columns {
		out[name] = col
	}
	return out
}

// ColumnNames returns column names in declaration order
func (t *Table) ColumnNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Column retrieves a column by name
func (t *Table) Column(name string) (*columnar.Column, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	col, ok := t.columns[name]
	return col, ok
}

// HasColumn reports whether the table declares the column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// AddColumn adds a column filled to the current row count with def
func (t *Table) AddColumn(name string, def interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.columns[name]; exists {
		return errors.Newf(errors.ErrorTypeColumnExists, "a column with the name %s already exists", name).
			WithDetail("table", t.name).
			WithDetail("column", name)
	}

	t.columns[name] = columnar.NewColumn(name, def, t.count)
	t.order = append(t.order, name)
	return nil
}

// Insert appends rows given column-major: one slice per declared column,
// all of the same length. Nothing is written if validation fails.
func (t *Table) Insert(data map[string][]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.validateInsert(data)
	if err != nil {
		return err
	}

	for name, values := range data {
		t.columns[name].Push(values...)
	}
	t.count += rows
	return nil
}

// validateInsert checks that data covers exactly the declared columns with
// equal-length slices and returns that length.
func (t *Table) validateInsert(data map[string][]interface{}) (int, error) {
	if len(data) != len(t.columns) {
		return 0, errors.Newf(errors.ErrorTypeInvalidDataset, "%d columns in data set, %d expected", len(data), len(t.columns)).
			WithDetail("table", t.name)
	}

	rows := -1
	for name, values := range data {
		if _, ok := t.columns[name]; !ok {
			return 0, errors.Newf(errors.ErrorTypeInvalidDataset, "column %s was in the data set, but not the table", name).
				WithDetail("table", t.name)
		}
		if rows == -1 {
			rows = len(values)
		} else if rows != len(values) {
			return 0, errors.New(errors.ErrorTypeInvalidDataset, "data set columns contain different numbers of records").
				WithDetail("table", t.name).
				WithDetail("column", name)
		}
	}
	if rows < 0 {
		rows = 0
	}
	return rows, nil
}

// Row returns the values of row i keyed by column name
func (t *Table) Row(i int) map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row := make(map[string]interface{}, len(t.columns))
	for name, col := range t.columns {
		row[name] = col.Get(i)
	}
	return row
}

// Rows returns up to length rows starting at start, column-major
func (t *Table) Rows(start, length int) map[string][]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data := make(map[string][]interface{}, len(t.columns))
	for name, col := range t.columns {
		data[name] = col.GetRange(start, length)
	}
	return data
}

// Snapshot copies every column's values. Names come back in declaration order.
func (t *Table) Snapshot() ([]string, map[string][]interface{}) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.order))
	copy(names, t.order)

	data := make(map[string][]interface{}, len(t.columns))
	for name, col := range t.columns {
		data[name] = col.Values()
	}
	return names, data
}

// Schema describes each column's name and inferred type
func (t *Table) Schema() []columnar.FieldSchema {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fields := make([]columnar.FieldSchema, 0, len(t.order))
	for _, name := range t.order {
		fields = append(fields, columnar.FieldSchema{Name: name, Type: t.columns[name].Type()})
	}
	return fields
}
