package dataset

// Result is the derived view: an ordered mapping from column key to values.
// Keys are bare column names, or "table__column" once the dataset has a join.
type Result struct {
	keys    []string
	columns map[string][]interface{}
}

func newResult(f *frame) *Result {
	return &Result{
		keys:    f.keys,
		columns: f.cols,
	}
}

// Keys returns the column keys in result order
func (r *Result) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Column returns a copy of the values stored under key
func (r *Result) Column(key string) ([]interface{}, bool) {
	values, ok := r.columns[key]
	if !ok {
		return nil, false
	}
	out := make([]interface{}, len(values))
	copy(out, values)
	return out, true
}

// Len is the number of rows
func (r *Result) Len() int {
	if len(r.keys) == 0 {
		return 0
	}
	return len(r.columns[r.keys[0]])
}

// Width is the number of columns
func (r *Result) Width() int {
	return len(r.keys)
}

// Row returns row i keyed by column key, or nil when i is out of range
func (r *Result) Row(i int) map[string]interface{} {
	if i < 0 || i >= r.Len() {
		return nil
	}
	row := make(map[string]interface{}, len(r.keys))
	for _, key := range r.keys {
		row[key] = r.columns[key][i]
	}
	return row
}

// Values returns row i in key order, or nil when i is out of range
func (r *Result) Values(i int) []interface{} {
	if i < 0 || i >= r.Len() {
		return nil
	}
	values := make([]interface{}, len(r.keys))
	for j, key := range r.keys {
		values[j] = r.columns[key][i]
	}
	return values
}

// Map returns a copy of every column keyed by column key
func (r *Result) Map() map[string][]interface{} {
	out := make(map[string][]interface{}, len(r.keys))
	for _, key := range r.keys {
		values := make([]interface{}, len(r.columns[key]))
		copy(values, r.columns[key])
		out[key] = values
	}
	return out
}
