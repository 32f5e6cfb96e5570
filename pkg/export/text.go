package export

import (
	"encoding/csv"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/ajitpratap0/tabula/pkg/dataset"
)

func writeTable(w io.Writer, r *dataset.Result, rows int, opts Options) error {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(r.Keys())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	for i := 0; i < rows; i++ {
		values := r.Values(i)
		line := make([]string, len(values))
		for j, v := range values {
			line[j] = text(v)
		}
		tw.Append(line)
	}

	caption := fmt.Sprintf("%d of %d rows", rows, r.Len())
	if opts.Name != "" {
		caption = opts.Name + ": " + caption
	}
	tw.SetCaption(true, caption)
	tw.Render()
	return nil
}

func writeCSV(w io.Writer, r *dataset.Result, rows int, _ Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Keys()); err != nil {
		return err
	}

	line := make([]string, r.Width())
	for i := 0; i < rows; i++ {
		for j, v := range r.Values(i) {
			line[j] = text(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// orderedRow marshals as a JSON object with keys in result order
type orderedRow struct {
	keys   []string
	values []interface{}
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, '{')
	for i, key := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := gojson.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := gojson.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func writeJSONL(w io.Writer, r *dataset.Result, rows int, _ Options) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	keys := r.Keys()
	for i := 0; i < rows; i++ {
		if err := enc.Encode(orderedRow{keys: keys, values: r.Values(i)}); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, r *dataset.Result, rows int, _ Options) error {
	keys := r.Keys()
	out := make([]orderedRow, rows)
	for i := range out {
		out[i] = orderedRow{keys: keys, values: r.Values(i)}
	}

	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
