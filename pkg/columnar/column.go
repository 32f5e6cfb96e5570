// Package columnar provides the column primitive tabula tables are built from
package columnar

import (
	"time"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeUnknown ColumnType = iota
	ColumnTypeString
	ColumnTypeInt
	ColumnTypeFloat
	ColumnTypeBool
	ColumnTypeTimestamp
)

// String returns the lowercase name of the type
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// FieldSchema defines a single field in a table schema
type FieldSchema struct {
	Name string
	Type ColumnType
}

// Column is a named, indexed, growable sequence of values. Every slot that
// has not been written holds the column default.
type Column struct {
	name   string
	def    interface{}
	values []interface{}
}

// NewColumn creates a column holding count copies of def
func NewColumn(name string, def interface{}, count int) *Column {
	if count < 0 {
		count = 0
	}
	c := &Column{
		name:   name,
		def:    def,
		values: make([]interface{}, count, max(count, 16)),
	}
	for i := range c.values {
		c.values[i] = def
	}
	return c
}

// Name returns the column name
func (c *Column) Name() string {
	return c.name
}

// SetName renames the column
func (c *Column) SetName(name string) {
	c.name = name
}

// Default returns the value unwritten slots hold
func (c *Column) Default() interface{} {
	return c.def
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	return len(c.values)
}

// Get returns the value at i, or nil when i is out of range
func (c *Column) Get(i int) interface{} {
	if i < 0 || i >= len(c.values) {
		return nil
	}
	return c.values[i]
}

// GetRange returns a copy of up to length values starting at start
func (c *Column) GetRange(start, length int) []interface{} {
	if start < 0 || length <= 0 || start >= len(c.values) {
		return []interface{}{}
	}
	end := start + length
	if end > len(c.values) {
		end = len(c.values)
	}
	out := make([]interface{}, end-start)
	copy(out, c.values[start:end])
	return out
}

// Set writes v at index i. Writing past the end grows the column and
// fills the gap with the default.
func (c *Column) Set(i int, v interface{}) {
	if i < 0 {
		return
	}
	for len(c.values) <= i {
		c.values = append(c.values, c.def)
	}
	c.values[i] = v
}

// Push appends values to the end of the column
func (c *Column) Push(values ...interface{}) {
	c.values = append(c.values, values...)
}

// Values returns a copy of every value in the column
func (c *Column) Values() []interface{} {
	out := make([]interface{}, len(c.values))
	copy(out, c.values)
	return out
}

// Type infers the column type from its first non-nil value
func (c *Column) Type() ColumnType {
	for _, v := range c.values {
		if v != nil {
			return InferType(v)
		}
	}
	return ColumnTypeUnknown
}

// InferType attempts to determine column type from a value
func InferType(value interface{}) ColumnType {
	switch value.(type) {
	case string:
		return ColumnTypeString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ColumnTypeInt
	case float32, float64:
		return ColumnTypeFloat
	case bool:
		return ColumnTypeBool
	case time.Time:
		return ColumnTypeTimestamp
	default:
		return ColumnTypeUnknown
	}
}

// InferValuesType returns the narrowest type every non-nil value fits:
// ints widen to float, any other mix falls back to string. All nil values
// give ColumnTypeUnknown.
func InferValuesType(values []interface{}) ColumnType {
	result := ColumnTypeUnknown
	for _, v := range values {
		if v == nil {
			continue
		}
		result = unify(result, InferType(v))
		if result == ColumnTypeString {
			return result
		}
	}
	return result
}

func unify(a, b ColumnType) ColumnType {
	switch {
	case a == ColumnTypeUnknown:
		if b == ColumnTypeUnknown {
			// non-nil value of an unsupported type
			return ColumnTypeString
		}
		return b
	case a == b:
		return a
	case (a == ColumnTypeInt && b == ColumnTypeFloat) || (a == ColumnTypeFloat && b == ColumnTypeInt):
		return ColumnTypeFloat
	default:
		return ColumnTypeString
	}
}
