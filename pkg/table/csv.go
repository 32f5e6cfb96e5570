package table

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// ImportCSV creates a table from a CSV file whose first row holds the
// column names. Every value is stored as text.
func ImportCSV(name, path string) (*Table, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is supplied by the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open CSV file").
			WithDetail("path", path)
	}
	defer file.Close()

	t, err := ReadCSV(name, file)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, e.WithDetail("path", path)
		}
		return nil, err
	}
	return t, nil
}

// ReadCSV creates a table from CSV records read from r. The header row
// becomes the column names; remaining rows are transposed into columns.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeFile, "CSV input has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read CSV header")
	}

	t, err := New(name, header)
	if err != nil {
		return nil, err
	}

	sorted := make(map[string][]interface{}, len(header))
	for _, columnName := range header {
		sorted[columnName] = make([]interface{}, 0, 64)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read CSV record").
				WithDetail("line", line)
		}
		if len(record) > len(header) {
			return nil, errors.Newf(errors.ErrorTypeInvalidDataset, "CSV record has %d fields, header declares %d", len(record), len(header)).
				WithDetail("line", line)
		}

		for i, columnName := range header {
			if i < len(record) {
				sorted[columnName] = append(sorted[columnName], record[i])
			} else {
				sorted[columnName] = append(sorted[columnName], nil)
			}
		}
	}

	if err := t.Insert(sorted); err != nil {
		return nil, err
	}
	return t, nil
}
