package export

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/dataset"
)

// Schema infers one field per result column from the values in its first
// rows. Columns with no values at all are typed as strings.
func Schema(result *dataset.Result, rows int) []columnar.FieldSchema {
	keys := result.Keys()
	fields := make([]columnar.FieldSchema, len(keys))
	for i, key := range keys {
		values, _ := result.Column(key)
		if rows < len(values) {
			values = values[:rows]
		}
		typ := columnar.InferValuesType(values)
		if typ == columnar.ColumnTypeUnknown {
			typ = columnar.ColumnTypeString
		}
		fields[i] = columnar.FieldSchema{Name: key, Type: typ}
	}
	return fields
}

// coerce converts v to the Go type used for typ: int64, float64, bool,
// time.Time or string. nil stays nil.
func coerce(v interface{}, typ columnar.ColumnType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case columnar.ColumnTypeInt:
		if u, ok := v.(uint64); ok && u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", u)
		}
		return cast.ToInt64E(v)
	case columnar.ColumnTypeFloat:
		return cast.ToFloat64E(v)
	case columnar.ColumnTypeBool:
		return cast.ToBoolE(v)
	case columnar.ColumnTypeTimestamp:
		return cast.ToTimeE(v)
	default:
		return text(v), nil
	}
}

// text renders v for text formats; nil becomes the empty string
func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return s
	}
}
