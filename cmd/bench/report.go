package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Result summarizes one operation of a phase
type Result struct {
	Operation string
	Count     int64
	OpsPerSec float64
	Mean      time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Max       time.Duration
	Statuses  map[string]int64
}

// PrintSummary prints the results of a phase in a formatted way
func PrintSummary(w io.Writer, phase string, elapsed time.Duration, results []Result) {
	var total int64
	for _, r := range results {
		total += r.Count
	}

	fmt.Fprintf(w, "[%s] runtime %s, %d operations", strings.ToUpper(phase), elapsed.Round(time.Millisecond), total)
	if elapsed > 0 {
		fmt.Fprintf(w, ", %.0f ops/sec", float64(total)/elapsed.Seconds())
	}
	fmt.Fprintln(w)

	for _, r := range results {
		fmt.Fprintf(w, "%-10s%8d ops  %10.0f ops/sec  mean=%-10s p50=%-10s p95=%-10s p99=%-10s max=%-10s %s\n",
			r.Operation, r.Count, r.OpsPerSec,
			r.Mean.Round(time.Microsecond), r.P50.Round(time.Microsecond), r.P95.Round(time.Microsecond),
			r.P99.Round(time.Microsecond), r.Max.Round(time.Microsecond),
			formatStatuses(r.Statuses),
		)
	}
}

// formatStatuses returns the status counts sorted by status name (e.g. "ERROR=1 OK=9")
func formatStatuses(statuses map[string]int64) string {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, statuses[name]))
	}
	return strings.Join(parts, " ")
}

// WriteCSV writes the results of a phase to a CSV file
func WriteCSV(csvPath, phase string, results []Result, workload Workload, protocol string) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	header := []string{
		"Phase", "Operation", "Count", "OpsPerSec",
		"MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "Statuses",
		"Protocol", "Threads", "RecordCount", "FieldCount", "FieldLength",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		row := []string{
			phase,
			r.Operation,
			strconv.FormatInt(r.Count, 10),
			fmt.Sprintf("%.0f", r.OpsPerSec),
			strconv.FormatInt(r.Mean.Nanoseconds(), 10),
			strconv.FormatInt(r.P50.Nanoseconds(), 10),
			strconv.FormatInt(r.P95.Nanoseconds(), 10),
			strconv.FormatInt(r.P99.Nanoseconds(), 10),
			strconv.FormatInt(r.Max.Nanoseconds(), 10),
			formatStatuses(r.Statuses),
			protocol,
			strconv.Itoa(workload.Threads),
			strconv.Itoa(workload.RecordCount),
			strconv.Itoa(workload.FieldCount),
			strconv.Itoa(workload.FieldLength),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for operation %s: %v", r.Operation, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
