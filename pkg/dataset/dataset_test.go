package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/tabula/pkg/aggregator"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/table"
)

func newTable(t *testing.T, name string, columns []string, data map[string][]interface{}) *table.Table {
	t.Helper()
	tbl, err := table.New(name, columns)
	require.NoError(t, err)
	if data != nil {
		require.NoError(t, tbl.Insert(data))
	}
	return tbl
}

// fixtures returns T(col1, col2) and T2(col1, col3)
func fixtures(t *testing.T) (*table.Table, *table.Table) {
	base := newTable(t, "T", []string{"col1", "col2"}, map[string][]interface{}{
		"col1": {1, 1, 2, 3, 3},
		"col2": {2, 5, 6, 3, 2},
	})
	other := newTable(t, "T2", []string{"col1", "col3"}, map[string][]interface{}{
		"col1": {1, 2, 3, 4, 5},
		"col3": {2, 4, 5, 3, 2},
	})
	return base, other
}

func newDataset(t *testing.T, tbl *table.Table, opts ...Option) *Dataset {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	ds, err := New(tbl, opts...)
	require.NoError(t, err)
	return ds
}

func column(t *testing.T, r *Result, key string) []interface{} {
	t.Helper()
	values, ok := r.Column(key)
	require.True(t, ok, "missing column %s in %v", key, r.Keys())
	return values
}

func TestNewIsIdentity(t *testing.T) {
	base, _ := fixtures(t)
	ds := newDataset(t, base)

	assert.Same(t, base, ds.Table())
	assert.Empty(t, ds.Filters())
	assert.Empty(t, ds.Groups())
	assert.Empty(t, ds.Joins())

	result := ds.Result()
	assert.Equal(t, []string{"col1", "col2"}, result.Keys())
	assert.Equal(t, base.Count(), result.Len())
	assert.Equal(t, 2, result.Width())

	_, snapshot := base.Snapshot()
	assert.Equal(t, snapshot, result.Map())
}

func TestNewEmptyTable(t *testing.T) {
	tbl := newTable(t, "test", []string{"hello", "im", "a", "table"}, nil)
	result := newDataset(t, tbl).Result()

	assert.Equal(t, 4, result.Width())
	assert.Equal(t, 0, result.Len())
	for _, key := range result.Keys() {
		assert.Empty(t, column(t, result, key))
	}
}

func TestNewRequiresTable(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDataset(err))
}

func TestRoundTripShape(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    int
	}{
		{"single column", []string{"a"}, 7},
		{"wide", []string{"a", "b", "c", "d", "e"}, 3},
		{"no rows", []string{"a", "b"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make(map[string][]interface{}, len(tt.columns))
			for c, name := range tt.columns {
				values := make([]interface{}, tt.rows)
				for i := range values {
					values[i] = c*100 + i
				}
				data[name] = values
			}
			tbl := newTable(t, "rt", tt.columns, data)

			result := newDataset(t, tbl).Result()
			assert.Equal(t, len(tt.columns), result.Width())
			assert.Equal(t, tt.rows, result.Len())
			assert.Equal(t, tt.columns, result.Keys())
		})
	}
}

func TestFilter(t *testing.T) {
	base, _ := fixtures(t)
	ds := newDataset(t, base)

	require.NoError(t, ds.Filter("T", "col2", func(v int) bool { return v > 2 }))
	require.Len(t, ds.Filters(), 1)

	result := ds.Result()
	assert.Equal(t, []interface{}{1, 2, 3}, column(t, result, "col1"))
	assert.Equal(t, []interface{}{5, 6, 3}, column(t, result, "col2"))

	// filters narrow further, they are not idempotent on row positions
	require.NoError(t, ds.Filter("T", "col1", func(v int) bool { return v != 2 }))
	assert.Equal(t, []interface{}{1, 3}, column(t, ds.Result(), "col1"))

	// the source table is untouched
	assert.Equal(t, 5, base.Count())
}

func TestFilterAcceptAll(t *testing.T) {
	base, _ := fixtures(t)
	ds := newDataset(t, base)

	require.NoError(t, ds.Filter("T", "col1", func(interface{}) bool { return true }))
	assert.Equal(t, base.Count(), ds.Result().Len())
}

func TestFilterAcceptsPredicate(t *testing.T) {
	base, _ := fixtures(t)
	ds := newDataset(t, base)

	even := MustPredicate(func(v int) bool { return v%2 == 0 })
	require.NoError(t, ds.Filter("T", "col2", even))
	assert.Same(t, even, ds.Filters()[0].Predicate)
	assert.Equal(t, []interface{}{2, 6, 2}, column(t, ds.Result(), "col2"))
}

func TestFilterConvertsText(t *testing.T) {
	tbl, err := table.ImportCSV("test", "../table/testdata/sample.csv")
	require.NoError(t, err)
	ds := newDataset(t, tbl)

	require.NoError(t, ds.Filter("test", "data1", func(v int) bool { return v%2 == 0 }))

	result := ds.Result()
	assert.Positive(t, result.Len())
	assert.Less(t, result.Len(), tbl.Count())
	assert.Equal(t, 4, result.Width())
	for _, v := range column(t, result, "data1") {
		assert.Regexp(t, `^\d*[02468]$`, v)
	}
}

func TestGroupBy(t *testing.T) {
	tests := []struct {
		method string
		col2   []interface{}
	}{
		{aggregator.Sum, []interface{}{7, 6, 5}},
		{aggregator.Average, []interface{}{3, 6, 2}},
		{aggregator.Min, []interface{}{2, 6, 2}},
		{aggregator.Max, []interface{}{5, 6, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			base, _ := fixtures(t)
			ds := newDataset(t, base)

			require.NoError(t, ds.GroupBy("T", "col1", tt.method))
			result := ds.Result()
			assert.Equal(t, []interface{}{1, 2, 3}, column(t, result, "col1"))
			assert.Equal(t, tt.col2, column(t, result, "col2"))
		})
	}
}

func TestGroupByFirstOccurrenceOrder(t *testing.T) {
	tbl := newTable(t, "g", []string{"k", "v"}, map[string][]interface{}{
		"k": {"b", "a", "b", "c", "a", 1, 1.0},
		"v": {1, 2, 3, 4, 5, 6, 7},
	})
	ds := newDataset(t, tbl)

	require.NoError(t, ds.GroupBy("g", "k", aggregator.Sum))
	result := ds.Result()
	// 1 and 1.0 are the same key; the first occurrence is kept
	assert.Equal(t, []interface{}{"b", "a", "c", 1}, column(t, result, "k"))
	assert.Equal(t, []interface{}{4, 7, 4, 13}, column(t, result, "v"))
}

func TestGroupByDistinct(t *testing.T) {
	tbl, err := table.ImportCSV("test", "../table/testdata/groups.csv")
	require.NoError(t, err)
	ds := newDataset(t, tbl)

	require.NoError(t, ds.GroupBy("test", "data1", aggregator.Sum))

	result := ds.Result()
	keys := column(t, result, "data1")
	seen := make(map[interface{}]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate group %v", k)
		seen[k] = true
	}
	original, _ := tbl.Column("data1")
	for _, v := range original.Values() {
		assert.True(t, seen[v], "group %v missing", v)
	}
	assert.Equal(t, len(keys), result.Len())
}

func TestGroupByNaN(t *testing.T) {
	tbl := newTable(t, "t", []string{"k", "v"}, map[string][]interface{}{
		"k": {math.NaN(), 1.0, math.NaN()},
		"v": {1, 2, 3},
	})
	ds := newDataset(t, tbl)
	require.NoError(t, ds.GroupBy("t", "k", aggregator.Sum))

	result := ds.Result()
	require.Equal(t, 2, result.Len())
	keys := column(t, result, "k")
	assert.True(t, math.IsNaN(keys[0].(float64)))
	assert.Equal(t, 1.0, keys[1])
	assert.Equal(t, []interface{}{4, 2}, column(t, result, "v"))
}

func TestGroupByCustomRegistry(t *testing.T) {
	reg := aggregator.NewRegistry()
	require.NoError(t, reg.RegisterFunc("first", func(acc, _ interface{}) (interface{}, error) {
		return acc, nil
	}))

	base, _ := fixtures(t)
	ds := newDataset(t, base, WithRegistry(reg))
	assert.Same(t, reg, ds.Registry())

	require.NoError(t, ds.GroupBy("T", "col1", "first"))
	assert.Equal(t, []interface{}{2, 6, 3}, column(t, ds.Result(), "col2"))

	other := newDataset(t, base)
	err := other.GroupBy("T", "col1", "first")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDataset(err))
}

func TestJoin(t *testing.T) {
	base, other := fixtures(t)
	ds := newDataset(t, base)

	require.NoError(t, ds.Join(other, "col1", "T", "col1"))
	require.Len(t, ds.Joins(), 1)

	result := ds.Result()
	assert.Equal(t, []string{"T__col1", "T__col2", "T2__col3"}, result.Keys())
	assert.Equal(t, []interface{}{1, 1, 2, 3, 3}, column(t, result, "T__col1"))
	assert.Equal(t, []interface{}{2, 5, 6, 3, 2}, column(t, result, "T__col2"))
	assert.Equal(t, []interface{}{2, 2, 4, 5, 5}, column(t, result, "T2__col3"))

	// every output row pairs equal join values
	col3ByKey := map[interface{}]interface{}{1: 2, 2: 4, 3: 5, 4: 3, 5: 2}
	for i := 0; i < result.Len(); i++ {
		row := result.Row(i)
		assert.Equal(t, col3ByKey[row["T__col1"]], row["T2__col3"])
	}
}

func TestJoinKeepsRowsAligned(t *testing.T) {
	base := newTable(t, "orders", []string{"customer", "item"}, map[string][]interface{}{
		"customer": {3, 1, 2},
		"item":     {"pear", "apple", "fig"},
	})
	customers := newTable(t, "customers", []string{"id", "name"}, map[string][]interface{}{
		"id":   {2, 3, 1},
		"name": {"bo", "cy", "al"},
	})
	ds := newDataset(t, base)
	require.NoError(t, ds.Join(customers, "id", "orders", "customer"))

	result := ds.Result()
	require.Equal(t, 3, result.Len())
	names := map[interface{}]string{1: "al", 2: "bo", 3: "cy"}
	items := map[interface{}]string{3: "pear", 1: "apple", 2: "fig"}
	for i := 0; i < result.Len(); i++ {
		row := result.Row(i)
		assert.Equal(t, names[row["orders__customer"]], row["customers__name"])
		assert.Equal(t, items[row["orders__customer"]], row["orders__item"])
	}
}

func TestJoinFanOut(t *testing.T) {
	base := newTable(t, "a", []string{"k", "x"}, map[string][]interface{}{
		"k": {1, 2},
		"x": {"one", "two"},
	})
	many := newTable(t, "b", []string{"k", "y"}, map[string][]interface{}{
		"k": {1, 1, 1, 3},
		"y": {"p", "q", "r", "s"},
	})
	ds := newDataset(t, base)
	require.NoError(t, ds.Join(many, "k", "a", "k"))

	result := ds.Result()
	assert.Equal(t, []interface{}{1, 1, 1}, column(t, result, "a__k"))
	assert.Equal(t, []interface{}{"one", "one", "one"}, column(t, result, "a__x"))
	assert.Equal(t, []interface{}{"p", "q", "r"}, column(t, result, "b__y"))
}

func TestJoinNoMatches(t *testing.T) {
	base := newTable(t, "a", []string{"k", "x"}, map[string][]interface{}{
		"k": {1, 2},
		"x": {"one", "two"},
	})
	none := newTable(t, "b", []string{"k", "y"}, map[string][]interface{}{
		"k": {7, 8},
		"y": {"p", "q"},
	})
	ds := newDataset(t, base)
	require.NoError(t, ds.Join(none, "k", "a", "k"))

	result := ds.Result()
	assert.Equal(t, 0, result.Len())
	assert.Equal(t, []string{"a__k", "a__x", "b__y"}, result.Keys())
	for _, key := range result.Keys() {
		assert.Empty(t, column(t, result, key))
	}
}

func TestJoinSkipsNil(t *testing.T) {
	base := newTable(t, "a", []string{"k"}, map[string][]interface{}{"k": {nil, 1}})
	other := newTable(t, "b", []string{"k", "y"}, map[string][]interface{}{
		"k": {nil, 1},
		"y": {"null", "one"},
	})
	ds := newDataset(t, base)
	require.NoError(t, ds.Join(other, "k", "a", "k"))
	assert.Equal(t, []interface{}{"one"}, column(t, ds.Result(), "b__y"))
}

func TestJoinMixedNumericKinds(t *testing.T) {
	base := newTable(t, "a", []string{"k"}, map[string][]interface{}{"k": {1, 2}})
	other := newTable(t, "b", []string{"k", "y"}, map[string][]interface{}{
		"k": {2.0, int64(1)},
		"y": {"two", "one"},
	})
	ds := newDataset(t, base)
	require.NoError(t, ds.Join(other, "k", "a", "k"))
	assert.Equal(t, []interface{}{"one", "two"}, column(t, ds.Result(), "b__y"))
}

func TestGroupThenJoin(t *testing.T) {
	base, other := fixtures(t)
	ds := newDataset(t, base)

	require.NoError(t, ds.GroupBy("T", "col1", aggregator.Sum))
	require.NoError(t, ds.Join(other, "col1", "T", "col1"))

	result := ds.Result()
	assert.Equal(t, []interface{}{1, 2, 3}, column(t, result, "T__col1"))
	assert.Equal(t, []interface{}{7, 6, 5}, column(t, result, "T__col2"))
	assert.Equal(t, []interface{}{2, 4, 5}, column(t, result, "T2__col3"))
}

func TestFilterOnJoinedTable(t *testing.T) {
	base, other := fixtures(t)
	ds := newDataset(t, base)

	require.NoError(t, ds.Join(other, "col1", "T", "col1"))
	require.NoError(t, ds.Filter("T2", "col3", func(v int) bool { return v >= 4 }))

	result := ds.Result()
	assert.Equal(t, []interface{}{2, 3, 3}, column(t, result, "T__col1"))
	assert.Equal(t, []interface{}{6, 3, 2}, column(t, result, "T__col2"))
	assert.Equal(t, []interface{}{4, 5, 5}, column(t, result, "T2__col3"))
}

func TestJoinChain(t *testing.T) {
	base, other := fixtures(t)
	labels := newTable(t, "T3", []string{"col3", "label"}, map[string][]interface{}{
		"col3":  {2, 5},
		"label": {"two", "five"},
	})
	ds := newDataset(t, base)

	require.NoError(t, ds.Join(other, "col1", "T", "col1"))
	require.NoError(t, ds.Join(labels, "col3", "T2", "col3"))

	result := ds.Result()
	assert.Equal(t, []string{"T__col1", "T__col2", "T2__col3", "T3__label"}, result.Keys())
	assert.Equal(t, []interface{}{1, 1, 3, 3}, column(t, result, "T__col1"))
	assert.Equal(t, []interface{}{2, 5, 3, 2}, column(t, result, "T__col2"))
	assert.Equal(t, []interface{}{2, 2, 5, 5}, column(t, result, "T2__col3"))
	assert.Equal(t, []interface{}{"two", "two", "five", "five"}, column(t, result, "T3__label"))

	// the registered joins survive every derivation pass
	assert.Len(t, ds.Joins(), 2)
	require.NoError(t, ds.Filter("T", "col2", func(interface{}) bool { return true }))
	assert.Len(t, ds.Joins(), 2)
	assert.Equal(t, 4, ds.Result().Len())
}

func TestRejectedRegistrations(t *testing.T) {
	base, other := fixtures(t)
	stranger := newTable(t, "X", []string{"col1"}, map[string][]interface{}{"col1": {1}})
	impostor := newTable(t, "T2", []string{"col1"}, map[string][]interface{}{"col1": {1}})

	tests := []struct {
		name     string
		register func(ds *Dataset) error
	}{
		{"filter unknown table", func(ds *Dataset) error {
			return ds.Filter("X", "col1", func(interface{}) bool { return true })
		}},
		{"filter unknown column", func(ds *Dataset) error {
			return ds.Filter("T", "nope", func(interface{}) bool { return true })
		}},
		{"filter not yet joined table", func(ds *Dataset) error {
			return ds.Filter("T3", "col1", func(interface{}) bool { return true })
		}},
		{"filter two parameters", func(ds *Dataset) error {
			return ds.Filter("T", "col1", func(a, b int) bool { return a == b })
		}},
		{"filter non-bool result", func(ds *Dataset) error {
			return ds.Filter("T", "col1", func(v int) int { return v })
		}},
		{"filter not a function", func(ds *Dataset) error {
			return ds.Filter("T", "col1", "x == 1")
		}},
		{"filter nil", func(ds *Dataset) error {
			return ds.Filter("T", "col1", nil)
		}},
		{"group unknown table", func(ds *Dataset) error {
			return ds.GroupBy("X", "col1", aggregator.Sum)
		}},
		{"group unknown column", func(ds *Dataset) error {
			return ds.GroupBy("T", "nope", aggregator.Sum)
		}},
		{"group unknown method", func(ds *Dataset) error {
			return ds.GroupBy("T", "col1", "median")
		}},
		{"join nil table", func(ds *Dataset) error {
			return ds.Join(nil, "col1", "T", "col1")
		}},
		{"join missing column", func(ds *Dataset) error {
			return ds.Join(stranger, "nope", "T", "col1")
		}},
		{"join unreachable target", func(ds *Dataset) error {
			return ds.Join(stranger, "col1", "T3", "col1")
		}},
		{"join unknown target column", func(ds *Dataset) error {
			return ds.Join(stranger, "col1", "T", "nope")
		}},
		{"join table twice", func(ds *Dataset) error {
			return ds.Join(impostor, "col1", "T", "col1")
		}},
		{"self join", func(ds *Dataset) error {
			return ds.Join(base, "col1", "T2", "col1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := metrics.NewCollector("test")
			ds := newDataset(t, base, WithMetrics(collector))
			require.NoError(t, ds.Join(other, "col1", "T", "col1"))
			before := ds.Result()

			err := tt.register(ds)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidDataset(err), "unexpected error type %s", errors.GetType(err))

			assert.Empty(t, ds.Filters())
			assert.Empty(t, ds.Groups())
			assert.Len(t, ds.Joins(), 1)
			assert.Same(t, before, ds.Result())

			snap, err := collector.Snapshot()
			require.NoError(t, err)
			var rejected float64
			for _, kind := range []string{KindFilter, KindGroupBy, KindJoin} {
				rejected += snap["tabula_registrations_rejected_total{kind="+kind+"}"]
			}
			assert.Equal(t, 1.0, rejected)
		})
	}
}

func TestJoinRejectsKeyCollision(t *testing.T) {
	base := newTable(t, "a", []string{"b__c", "id"}, map[string][]interface{}{
		"b__c": {"x", "y"},
		"id":   {1, 2},
	})
	shadow := newTable(t, "a__b", []string{"c", "id"}, map[string][]interface{}{
		"c":  {"p", "q"},
		"id": {1, 2},
	})
	ds := newDataset(t, base)
	before := ds.Result()

	err := ds.Join(shadow, "id", "a", "id")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDataset(err))
	assert.Contains(t, err.Error(), "a__b__c")
	assert.Empty(t, ds.Joins())
	assert.Same(t, before, ds.Result())

	// joining on the clashing column drops it, so nothing collides
	require.NoError(t, ds.Join(shadow, "c", "a", "id"))
	assert.Equal(t, []string{"a__b__c", "a__id", "a__b__id"}, ds.Result().Keys())
}

func TestDerivationRejectsKeyCollision(t *testing.T) {
	base := newTable(t, "a", []string{"id"}, map[string][]interface{}{"id": {1, 2}})
	other := newTable(t, "a__b", []string{"id", "c"}, map[string][]interface{}{
		"id": {1, 2},
		"c":  {"p", "q"},
	})
	ds := newDataset(t, base)
	require.NoError(t, ds.Join(other, "id", "a", "id"))
	before := ds.Result()

	// a column added after registration clashes with a__b.c
	require.NoError(t, base.AddColumn("b__c", "x"))
	err := ds.Filter("a", "id", func(interface{}) bool { return true })
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDataset(err))
	assert.Empty(t, ds.Filters())
	assert.Same(t, before, ds.Result())
	assert.Equal(t, 2, before.Width())
}

func TestDeriveJoinGraphErrors(t *testing.T) {
	a := newTable(t, "a", []string{"id"}, map[string][]interface{}{"id": {1}})
	b := newTable(t, "b", []string{"id"}, map[string][]interface{}{"id": {1}})

	t.Run("cycle", func(t *testing.T) {
		ds := newDataset(t, a)
		ds.joins = []JoinSpec{
			{Table: b, ColumnName: "id", TargetTableName: "a", TargetColumnName: "id"},
			{Table: a, ColumnName: "id", TargetTableName: "b", TargetColumnName: "id"},
		}
		_, err := ds.derive()
		require.Error(t, err)
		assert.True(t, errors.IsInvalidDataset(err))
		assert.Contains(t, err.Error(), "join cycle")
	})

	t.Run("unreached join", func(t *testing.T) {
		ds := newDataset(t, a)
		ds.joins = []JoinSpec{
			{Table: b, ColumnName: "id", TargetTableName: "c", TargetColumnName: "id"},
		}
		_, err := ds.derive()
		require.Error(t, err)
		assert.True(t, errors.IsInvalidDataset(err))
		assert.Contains(t, err.Error(), "never reached")
	})
}

func TestFailedDerivationRollsBack(t *testing.T) {
	tbl := newTable(t, "t", []string{"k", "name"}, map[string][]interface{}{
		"k":    {1, 1},
		"name": {"a", "b"},
	})
	ds := newDataset(t, tbl)
	before := ds.Result()

	// "a" cannot become an int
	err := ds.Filter("t", "name", func(v int) bool { return v > 0 })
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDataset(err))
	assert.Empty(t, ds.Filters())
	assert.Same(t, before, ds.Result())

	// averaging text fails inside the aggregator
	err = ds.GroupBy("t", "k", aggregator.Average)
	require.Error(t, err)
	assert.True(t, errors.IsAggregatorError(err))
	assert.Empty(t, ds.Groups())
	assert.Same(t, before, ds.Result())

	// the dataset still accepts valid registrations afterwards
	require.NoError(t, ds.GroupBy("t", "k", aggregator.Sum))
	assert.Equal(t, []interface{}{"ab"}, column(t, ds.Result(), "name"))
}

func TestDerivationLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base, other := fixtures(t)

	ds, err := New(base, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, ds.Join(other, "col1", "T", "col1"))

	derived := logs.FilterMessage("dataset derived").All()
	require.Len(t, derived, 2)
	fields := derived[1].ContextMap()
	assert.Equal(t, "T", fields["table"])
	assert.Equal(t, int64(1), fields["joins"])
	assert.Equal(t, int64(5), fields["rows"])
	assert.Equal(t, int64(3), fields["columns"])
}

func TestDerivationMetrics(t *testing.T) {
	collector := metrics.NewCollector("test")
	base, other := fixtures(t)
	ds := newDataset(t, base, WithMetrics(collector))
	require.NoError(t, ds.Join(other, "col1", "T", "col1"))

	snap, err := collector.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap["tabula_derivations_total{outcome=success}"])
	assert.Equal(t, 5.0, snap["tabula_join_matches_total"])
	assert.Equal(t, 5.0, snap["tabula_result_rows"])
	assert.Equal(t, 3.0, snap["tabula_result_columns"])
}
