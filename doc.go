// Package tabula provides in-memory tables and a declarative dataset layer
// that derives filtered, grouped and joined views over them.
//
// A Dataset starts as the identity view of one table. Filters, group-bys and
// joins are registered on it one at a time; every registration is validated
// against the tables the dataset can reach and triggers a full re-derivation
// of the result. A registration that fails validation is rejected and leaves
// the dataset unchanged.
//
// # Quick Start
//
//	import (
//	    "github.com/ajitpratap0/tabula/pkg/dataset"
//	    "github.com/ajitpratap0/tabula/pkg/table"
//	)
//
//	t1, _ := table.New("t1", []string{"col1", "col2"})
//	_ = t1.Insert(map[string][]interface{}{
//	    "col1": {1, 1, 2, 3, 3},
//	    "col2": {2, 5, 6, 3, 2},
//	})
//
//	ds, _ := dataset.New(t1)
//	_ = ds.GroupBy("t1", "col1", "sum")
//	ds.Result().Column("col2") // [7 6 5]
//
// # Key Packages
//
//	pkg/table        - Named tables of equal-length columns, CSV import
//	pkg/columnar     - Column storage and type inference
//	pkg/dataset      - Filters, group-bys, sort-merge joins and the derived Result
//	pkg/aggregator   - Registry of reducers used by group-by (sum, average, min, max)
//	pkg/value        - Total order, equality and arithmetic over dynamic values
//	pkg/export       - Table, JSON, JSONL, CSV, Arrow, Parquet and Avro writers
//	pkg/compression  - gzip, snappy, lz4, zstd and s2 streams for output files
//	pkg/config       - YAML query files with ${VAR} substitution
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Derivation metrics on a private Prometheus registry
//	internal/query   - Builds a Dataset from a query file
//
// # Result keys
//
// Without joins the result is keyed by bare column names. As soon as one join
// is registered every key becomes "table__column", e.g. "t1__col1".
//
// # Command line
//
//	tabula query --config orders.yaml --format parquet --output orders.parquet
//	tabula describe --csv orders.csv --type amount=float
//	tabula aggregators
//	tabula version
//
// Every flag can also be set through a TABULA_* environment variable.
package tabula
