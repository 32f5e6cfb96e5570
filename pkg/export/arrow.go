package export

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/dataset"
)

func arrowType(typ columnar.ColumnType) arrow.DataType {
	switch typ {
	case columnar.ColumnTypeInt:
		return arrow.PrimitiveTypes.Int64
	case columnar.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float64
	case columnar.ColumnTypeBool:
		return arrow.FixedWidthTypes.Boolean
	case columnar.ColumnTypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema converts inferred fields to a nullable Arrow schema
func ArrowSchema(fields []columnar.FieldSchema) *arrow.Schema {
	out := make([]arrow.Field, len(fields))
	for i, f := range fields {
		out[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Type), Nullable: true}
	}
	return arrow.NewSchema(out, nil)
}

// buildRecord copies the first rows of r into a single Arrow record. The
// caller releases it.
func buildRecord(r *dataset.Result, rows int, pool memory.Allocator) (arrow.Record, error) {
	fields := Schema(r, rows)
	schema := ArrowSchema(fields)

	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for i, f := range fields {
		values, _ := r.Column(f.Name)
		fb := builder.Field(i)
		fb.Reserve(rows)
		for _, v := range values[:rows] {
			if err := appendArrowValue(fb, v, f.Type); err != nil {
				return nil, fmt.Errorf("column %s: %w", f.Name, err)
			}
		}
	}
	return builder.NewRecord(), nil
}

func appendArrowValue(builder array.Builder, v interface{}, typ columnar.ColumnType) error {
	coerced, err := coerce(v, typ)
	if err != nil {
		return err
	}
	if coerced == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.Int64Builder:
		b.Append(coerced.(int64))
	case *array.Float64Builder:
		b.Append(coerced.(float64))
	case *array.BooleanBuilder:
		b.Append(coerced.(bool))
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(coerced.(time.Time).UnixMicro()))
	case *array.StringBuilder:
		b.Append(coerced.(string))
	default:
		return fmt.Errorf("unsupported builder type: %T", builder)
	}
	return nil
}

func writeArrow(w io.Writer, r *dataset.Result, rows int, _ Options) error {
	pool := memory.NewGoAllocator()
	record, err := buildRecord(r, rows, pool)
	if err != nil {
		return err
	}
	defer record.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(record.Schema()), ipc.WithAllocator(pool))
	if err != nil {
		return fmt.Errorf("failed to create Arrow writer: %w", err)
	}
	if err := fw.Write(record); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return fw.Close()
}

func writeParquet(w io.Writer, r *dataset.Result, rows int, _ Options) error {
	pool := memory.NewGoAllocator()
	record, err := buildRecord(r, rows, pool)
	if err != nil {
		return err
	}
	defer record.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithAllocator(pool),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool))

	// the parquet writer closes its sink; the caller owns w
	fw, err := pqarrow.NewFileWriter(record.Schema(), noClose{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create Parquet writer: %w", err)
	}
	if err := fw.Write(record); err != nil {
		return fmt.Errorf("failed to write row group: %w", err)
	}
	return fw.Close()
}
