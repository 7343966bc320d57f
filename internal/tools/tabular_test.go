package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeCSVSmallFile(t *testing.T) {
	path := writeCSV(t, "name,score\nalice,10\nbob,20\ncarol,30\n")

	report := AnalyzeCSV(path)
	assert.Contains(t, report, "--- DATA REPORT:")
	assert.Contains(t, report, "Full scan. Total rows: 3")
	assert.Contains(t, report, "Columns: name, score")
	assert.Contains(t, report, "alice, 10")
	assert.Contains(t, report, "score: min=10 mean=20 max=30")
	assert.NotContains(t, report, "name: min=", "text columns get no statistics")
	assert.Contains(t, report, "--- END OF REPORT ---")
}

func TestAnalyzeCSVLargeFileIsSampled(t *testing.T) {
	var b strings.Builder
	b.WriteString("id\n")
	for i := 0; i < 1500; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	path := writeCSV(t, b.String())

	report := AnalyzeCSV(path)
	assert.Contains(t, report, "Sampled! Total rows: 1500")
	assert.Contains(t, report, "first/last 10 rows")
	// Head and tail samples are present, the middle is not.
	assert.Contains(t, report, "  0\n")
	assert.Contains(t, report, "  1499\n")
	assert.NotContains(t, report, "  750\n")
}

func TestAnalyzeCSVMissingFileReturnsErrorString(t *testing.T) {
	report := AnalyzeCSV("/nonexistent/file.csv")
	assert.True(t, strings.HasPrefix(report, "Error reading CSV"), report)
}

func TestAnalyzeCSVEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	assert.Contains(t, AnalyzeCSV(path), "Error reading CSV")
}
