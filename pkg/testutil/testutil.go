// Package testutil provides testing utilities for tabula
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tabula/pkg/table"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// NewTable creates a table and inserts data, failing the test on error.
// A nil data map leaves the table empty.
func NewTable(t *testing.T, name string, columns []string, data map[string][]interface{}) *table.Table {
	t.Helper()
	tbl, err := table.New(name, columns)
	require.NoError(t, err)
	if data != nil {
		require.NoError(t, tbl.Insert(data))
	}
	return tbl
}
