// Package export writes a dataset Result in one of several formats.
//
// Row-oriented formats (table, json, jsonl, csv, avro) walk the result row
// by row; columnar formats (arrow, parquet) build one Arrow record from the
// result's columns. Column types for typed formats are inferred from the
// values, see Schema.
package export

import (
	"io"
	"os"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/dataset"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Format identifies an output format
type Format string

const (
	Table   Format = "table"
	JSON    Format = "json"
	JSONL   Format = "jsonl"
	CSV     Format = "csv"
	Arrow   Format = "arrow"
	Parquet Format = "parquet"
	Avro    Format = "avro"
)

// Options tune a single export
type Options struct {
	// Limit caps the rows written; 0 writes every row
	Limit int
	// Name is the record name for Avro and the caption for tables
	Name string
}

type writerFunc func(w io.Writer, r *dataset.Result, rows int, opts Options) error

var writers = map[Format]writerFunc{
	Table:   writeTable,
	JSON:    writeJSON,
	JSONL:   writeJSONL,
	CSV:     writeCSV,
	Arrow:   writeArrow,
	Parquet: writeParquet,
	Avro:    writeAvro,
}

var extensions = map[Format]string{
	Table:   ".txt",
	JSON:    ".json",
	JSONL:   ".jsonl",
	CSV:     ".csv",
	Arrow:   ".arrow",
	Parquet: ".parquet",
	Avro:    ".avro",
}

// Formats lists every supported format
func Formats() []Format {
	return []Format{Table, JSON, JSONL, CSV, Arrow, Parquet, Avro}
}

// ParseFormat maps a name such as "jsonl" to its Format
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := writers[f]; !ok {
		return "", errors.Newf(errors.ErrorTypeValidation, "unsupported output format: %s", name)
	}
	return f, nil
}

// Extension is the conventional file suffix for f
func (f Format) Extension() string {
	return extensions[f]
}

// Write encodes result to w in format
func Write(w io.Writer, result *dataset.Result, format Format, opts Options) error {
	write, ok := writers[format]
	if !ok {
		return errors.Newf(errors.ErrorTypeValidation, "unsupported output format: %s", format)
	}
	if opts.Limit < 0 {
		return errors.New(errors.ErrorTypeValidation, "limit cannot be negative")
	}

	rows := result.Len()
	if opts.Limit > 0 && opts.Limit < rows {
		rows = opts.Limit
	}

	if err := write(w, result, rows, opts); err != nil {
		if errors.GetType(err) != errors.ErrorTypeInternal {
			return err
		}
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write "+string(format)).
			WithDetail("format", string(format))
	}
	return nil
}

// WriteFile writes result to path, compressing the stream with algorithm
func WriteFile(path string, result *dataset.Result, format Format, algorithm compression.Algorithm, opts Options) (err error) {
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algorithm})
	if err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // G304: output path comes from the command line
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output file").
				WithDetail("path", path)
		}
	}()

	cw, err := comp.NewWriter(f)
	if err != nil {
		return err
	}
	if err := Write(cw, result, format, opts); err != nil {
		return err
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush compressed output").
			WithDetail("path", path)
	}
	return nil
}

// noClose hides Close from writers that close their sink
type noClose struct {
	io.Writer
}
