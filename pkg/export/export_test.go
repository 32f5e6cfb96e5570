package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	gojson "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/dataset"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult(t *testing.T) *dataset.Result {
	t.Helper()
	tbl, err := table.New("scores", []string{"id", "score", "name", "ok", "at"})
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(map[string][]interface{}{
		"id":    {1, 2, 3},
		"score": {1.5, nil, 3},
		"name":  {"a", "b<c>", "c"},
		"ok":    {true, false, true},
		"at":    {epoch, epoch.Add(time.Hour), nil},
	}))

	ds, err := dataset.New(tbl, dataset.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return ds.Result()
}

func TestSchema(t *testing.T) {
	fields := Schema(sampleResult(t), 3)
	assert.Equal(t, []columnar.FieldSchema{
		{Name: "id", Type: columnar.ColumnTypeInt},
		{Name: "score", Type: columnar.ColumnTypeFloat},
		{Name: "name", Type: columnar.ColumnTypeString},
		{Name: "ok", Type: columnar.ColumnTypeBool},
		{Name: "at", Type: columnar.ColumnTypeTimestamp},
	}, fields)
}

func TestSchemaEmptyColumnIsString(t *testing.T) {
	tbl, err := table.New("empty", []string{"x"})
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(map[string][]interface{}{"x": {nil, nil}}))
	ds, err := dataset.New(tbl)
	require.NoError(t, err)

	fields := Schema(ds.Result(), 2)
	assert.Equal(t, columnar.ColumnTypeString, fields[0].Type)
}

func TestCoerce(t *testing.T) {
	v, err := coerce(int32(7), columnar.ColumnTypeInt)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = coerce(3, columnar.ColumnTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)

	v, err = coerce(nil, columnar.ColumnTypeBool)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = coerce(uint64(1<<63), columnar.ColumnTypeInt)
	assert.Error(t, err)

	assert.Equal(t, "2024-03-01T12:00:00Z", text(epoch))
	assert.Equal(t, "", text(nil))
	assert.Equal(t, "1.5", text(1.5))
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		parsed, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
		assert.NotEmpty(t, f.Extension())
	}

	_, err := ParseFormat("xml")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestWriteRejectsBadInput(t *testing.T) {
	r := sampleResult(t)
	var buf bytes.Buffer

	err := Write(&buf, r, Format("xml"), Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	err = Write(&buf, r, CSV, Options{Limit: -1})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Zero(t, buf.Len())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), CSV, Options{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "score", "name", "ok", "at"},
		{"1", "1.5", "a", "true", "2024-03-01T12:00:00Z"},
		{"2", "", "b<c>", "false", "2024-03-01T13:00:00Z"},
		{"3", "3", "c", "true", ""},
	}, records)
}

func TestWriteLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), CSV, Options{Limit: 2}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	buf.Reset()
	require.NoError(t, Write(&buf, sampleResult(t), CSV, Options{Limit: 10}))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), JSON, Options{}))

	out := buf.String()
	assert.Less(t, strings.Index(out, `"id"`), strings.Index(out, `"score"`))
	assert.Less(t, strings.Index(out, `"name"`), strings.Index(out, `"ok"`))

	var rows []map[string]interface{}
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, float64(1), rows[0]["id"])
	assert.Nil(t, rows[1]["score"])
	assert.Equal(t, "b<c>", rows[1]["name"])
	assert.Equal(t, true, rows[2]["ok"])
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	tbl, err := table.New("none", []string{"x"})
	require.NoError(t, err)
	ds, err := dataset.New(tbl)
	require.NoError(t, err)
	require.NoError(t, Write(&buf, ds.Result(), JSON, Options{}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), JSONL, Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		var row map[string]interface{}
		require.NoError(t, gojson.Unmarshal([]byte(line), &row))
		assert.Equal(t, float64(i+1), row["id"])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), Table, Options{Limit: 2, Name: "scores"}))

	out := buf.String()
	for _, s := range []string{"id", "score", "name", "b<c>", "scores: 2 of 3 rows"} {
		assert.Contains(t, out, s)
	}
}

func TestWriteArrow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), Arrow, Options{}))

	fr, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer fr.Close()

	require.Equal(t, 1, fr.NumRecords())
	rec, err := fr.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, "id", rec.ColumnName(0))

	ids := rec.Column(0).(*array.Int64)
	assert.Equal(t, []int64{1, 2, 3}, ids.Int64Values())

	scores := rec.Column(1).(*array.Float64)
	assert.Equal(t, 1.5, scores.Value(0))
	assert.True(t, scores.IsNull(1))
	assert.Equal(t, float64(3), scores.Value(2))

	assert.Equal(t, "b<c>", rec.Column(2).(*array.String).Value(1))
	assert.False(t, rec.Column(3).(*array.Boolean).Value(1))

	at := rec.Column(4).(*array.Timestamp)
	assert.Equal(t, arrow.Timestamp(epoch.UnixMicro()), at.Value(0))
	assert.True(t, at.IsNull(2))
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), Parquet, Options{}))

	pool := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(pool), pqarrow.ArrowReadProperties{}, pool)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(3), tbl.NumRows())
	assert.Equal(t, int64(5), tbl.NumCols())
	assert.Equal(t, "score", tbl.Schema().Field(1).Name)
	assert.Equal(t, arrow.FLOAT64, tbl.Schema().Field(1).Type.ID())
}

func TestWriteAvro(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), Avro, Options{Name: "scores"}))

	ocf, err := goavro.NewOCFReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var rows []map[string]interface{}
	for ocf.Scan() {
		datum, err := ocf.Read()
		require.NoError(t, err)
		rows = append(rows, datum.(map[string]interface{}))
	}
	require.NoError(t, ocf.Err())
	require.Len(t, rows, 3)

	assert.Equal(t, map[string]interface{}{"long": int64(1)}, rows[0]["id"])
	assert.Nil(t, rows[1]["score"])
	assert.Equal(t, map[string]interface{}{"string": "b<c>"}, rows[1]["name"])
	assert.Equal(t, map[string]interface{}{"string": "2024-03-01T12:00:00Z"}, rows[0]["at"])
}

func TestAvroSchemaNames(t *testing.T) {
	schema, names, err := AvroSchema("t1 result", []columnar.FieldSchema{
		{Name: "T__col1", Type: columnar.ColumnTypeInt},
		{Name: "1st", Type: columnar.ColumnTypeFloat},
		{Name: "a-b", Type: columnar.ColumnTypeString},
		{Name: "a_b", Type: columnar.ColumnTypeBool},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"T__col1", "_1st", "a_b", "a_b_1"}, names)

	_, err = goavro.NewCodec(schema)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, gojson.Unmarshal([]byte(schema), &parsed))
	assert.Equal(t, "t1_result", parsed["name"])
}

func TestWriteFileCompressed(t *testing.T) {
	dir := t.TempDir()
	r := sampleResult(t)

	for _, algorithm := range []compression.Algorithm{compression.None, compression.Gzip, compression.Zstd} {
		t.Run(string(algorithm), func(t *testing.T) {
			path := filepath.Join(dir, "out"+CSV.Extension()+algorithm.Extension())
			require.NoError(t, WriteFile(path, r, CSV, algorithm, Options{}))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			comp, err := compression.NewCompressor(&compression.Config{Algorithm: algorithm})
			require.NoError(t, err)
			rc, err := comp.NewReader(f)
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())

			assert.True(t, strings.HasPrefix(string(data), "id,score,name,ok,at\n"))
		})
	}
}

func TestWriteFileBadPath(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv"), sampleResult(t), CSV, compression.None, Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
