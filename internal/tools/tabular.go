package tools

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AnalyzeCSV reads a CSV file and returns a bounded text summary for the
// model to reason over: columns, row count, a head (and tail, for large
// files) sample, and basic numeric statistics. Failures come back as an
// error string, never as an error value.
func AnalyzeCSV(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("Error reading CSV %s: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Sprintf("Error reading CSV %s: %v", path, err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Error reading CSV %s: file is empty", path)
	}

	header := rows[0]
	data := rows[1:]
	rowCount := len(data)

	var note string
	var sample [][]string
	if rowCount > 1000 {
		note = fmt.Sprintf("(Sampled! Total rows: %d. Showing first/last 10 rows for context.)", rowCount)
		sample = append(sample, data[:10]...)
		sample = append(sample, data[rowCount-10:]...)
	} else {
		note = fmt.Sprintf("(Full scan. Total rows: %d.)", rowCount)
		n := 5
		if rowCount < n {
			n = rowCount
		}
		sample = data[:n]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- DATA REPORT: %s ---\n", path)
	b.WriteString(note + "\n")
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(header, ", "))
	b.WriteString("Sample rows:\n")
	for _, row := range sample {
		b.WriteString("  " + strings.Join(row, ", ") + "\n")
	}

	stats := numericStats(header, data)
	if len(stats) > 0 {
		b.WriteString("Numerical statistics:\n")
		for _, s := range stats {
			b.WriteString("  " + s + "\n")
		}
	}
	b.WriteString("--- END OF REPORT ---")

	return b.String()
}

// numericStats computes min/mean/max for columns where every non-empty
// value parses as a number.
func numericStats(header []string, data [][]string) []string {
	var out []string

	for col, name := range header {
		var sum, min, max float64
		count := 0
		numeric := true

		for _, row := range data {
			if col >= len(row) || row[col] == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				numeric = false
				break
			}
			if count == 0 || v < min {
				min = v
			}
			if count == 0 || v > max {
				max = v
			}
			sum += v
			count++
		}

		if numeric && count > 0 {
			out = append(out, fmt.Sprintf("%s: min=%.4g mean=%.4g max=%.4g", name, min, sum/float64(count), max))
		}
	}

	return out
}
