package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides base functionality for integration tests
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "tabula-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir

	s.T().Logf("Integration test suite started in %s", s.tempDir)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		_ = os.RemoveAll(s.tempDir)
	}

	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the test context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the temporary directory path
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// CreateTempFile creates a file with content in the suite's directory
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	err := os.WriteFile(path, content, 0o600)
	require.NoError(s.T(), err)
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// CreateTestData writes numFiles CSV files named test_data_<i>.csv with the
// header id,name,value,group. Every file numbers its rows 0..recordsPerFile-1,
// so the id columns of any two files join row for row. group is id % 5 and
// value is id * 1.25.
func CreateTestData(t *testing.T, dir string, numFiles int, recordsPerFile int) []string {
	t.Helper()

	var files []string
	for i := 0; i < numFiles; i++ {
		filename := filepath.Join(dir, fmt.Sprintf("test_data_%d.csv", i))
		file, err := os.Create(filename) //nolint:gosec // G304: test directory
		require.NoError(t, err)

		_, err = file.WriteString("id,name,value,group\n")
		require.NoError(t, err)

		for j := 0; j < recordsPerFile; j++ {
			record := fmt.Sprintf("%d,Record_%d_%d,%.2f,%d\n", j, i, j, float64(j)*1.25, j%5)
			_, err = file.WriteString(record)
			require.NoError(t, err)
		}

		require.NoError(t, file.Close())
		files = append(files, filename)
	}

	return files
}
