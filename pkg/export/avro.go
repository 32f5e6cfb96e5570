package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/dataset"
)

const defaultRecordName = "Result"

type avroField struct {
	Name    string      `json:"name"`
	Type    []string    `json:"type"`
	Default interface{} `json:"default"`
	Doc     string      `json:"doc,omitempty"`
}

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

func avroType(typ columnar.ColumnType) string {
	switch typ {
	case columnar.ColumnTypeInt:
		return "long"
	case columnar.ColumnTypeFloat:
		return "double"
	case columnar.ColumnTypeBool:
		return "boolean"
	default:
		// timestamps are written as RFC 3339 strings
		return "string"
	}
}

// avroName rewrites s into a valid Avro name
func avroName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// AvroSchema builds the JSON schema of a nullable Avro record for fields.
// Column keys that are not valid Avro names are rewritten, and the original
// key is kept in the field's doc.
func AvroSchema(name string, fields []columnar.FieldSchema) (string, []string, error) {
	if name == "" {
		name = defaultRecordName
	}
	record := avroRecord{Type: "record", Name: avroName(name), Fields: make([]avroField, len(fields))}
	names := make([]string, len(fields))
	seen := make(map[string]bool, len(fields))

	for i, f := range fields {
		n := avroName(f.Name)
		for suffix := 1; seen[n]; suffix++ {
			n = avroName(f.Name) + "_" + strconv.Itoa(suffix)
		}
		seen[n] = true
		names[i] = n

		field := avroField{Name: n, Type: []string{"null", avroType(f.Type)}}
		if n != f.Name {
			field.Doc = f.Name
		}
		record.Fields[i] = field
	}

	schema, err := gojson.Marshal(record)
	if err != nil {
		return "", nil, err
	}
	return string(schema), names, nil
}

func avroValue(v interface{}, typ columnar.ColumnType) (interface{}, error) {
	coerced, err := coerce(v, typ)
	if err != nil || coerced == nil {
		return nil, err
	}
	if t, ok := coerced.(time.Time); ok {
		coerced = text(t)
	}
	return goavro.Union(avroType(typ), coerced), nil
}

func writeAvro(w io.Writer, r *dataset.Result, rows int, opts Options) error {
	fields := Schema(r, rows)
	schema, names, err := AvroSchema(opts.Name, fields)
	if err != nil {
		return err
	}

	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return fmt.Errorf("failed to create Avro codec: %w", err)
	}
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to create Avro writer: %w", err)
	}

	columns := make([][]interface{}, len(fields))
	for i, f := range fields {
		columns[i], _ = r.Column(f.Name)
	}

	batch := make([]interface{}, 0, rows)
	for row := 0; row < rows; row++ {
		native := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			v, err := avroValue(columns[i][row], f.Type)
			if err != nil {
				return fmt.Errorf("column %s: %w", f.Name, err)
			}
			native[names[i]] = v
		}
		batch = append(batch, native)
	}

	if len(batch) == 0 {
		return nil
	}
	if err := ocf.Append(batch); err != nil {
		return fmt.Errorf("failed to write Avro records: %w", err)
	}
	return nil
}
