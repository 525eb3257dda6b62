package bench

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ValentinKolb/kvbind/lib/binding"
	"gopkg.in/yaml.v3"
)

// Workload describes the load and run phase of a benchmark.
// The field names follow the YCSB core workload properties.
type Workload struct {
	RecordCount      int     `yaml:"recordcount" json:"recordcount"`
	OperationCount   int     `yaml:"operationcount" json:"operationcount"`
	FieldCount       int     `yaml:"fieldcount" json:"fieldcount"`
	FieldLength      int     `yaml:"fieldlength" json:"fieldlength"`
	ReadProportion   float64 `yaml:"readproportion" json:"readproportion"`
	UpdateProportion float64 `yaml:"updateproportion" json:"updateproportion"`
	InsertProportion float64 `yaml:"insertproportion" json:"insertproportion"`
	ScanProportion   float64 `yaml:"scanproportion" json:"scanproportion"`
	DeleteProportion float64 `yaml:"deleteproportion" json:"deleteproportion"`
	MaxScanLength    int     `yaml:"maxscanlength" json:"maxscanlength"`
	WriteAllFields   bool    `yaml:"writeallfields" json:"writeallfields"`
	Threads          int     `yaml:"threads" json:"threads"`
	KeyPrefix        string  `yaml:"keyprefix" json:"keyprefix"`
	Seed             int64   `yaml:"seed" json:"seed"`
}

// DefaultWorkload returns an update heavy workload (50% reads, 50% updates)
func DefaultWorkload() Workload {
	return Workload{
		RecordCount:      1000,
		OperationCount:   1000,
		FieldCount:       10,
		FieldLength:      100,
		ReadProportion:   0.5,
		UpdateProportion: 0.5,
		MaxScanLength:    100,
		Threads:          1,
		KeyPrefix:        "user",
	}
}

// LoadWorkload reads a workload file (yaml or json). Properties missing in the file keep their default value.
func LoadWorkload(path string) (Workload, error) {
	w := DefaultWorkload()

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read workload file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &w); err != nil {
			return w, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &w); err != nil {
			return w, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return w, fmt.Errorf("unsupported workload format: %s", ext)
	}

	return w, nil
}

// Validate checks the workload
func (w Workload) Validate() error {
	if w.RecordCount < 0 || w.OperationCount < 0 {
		return fmt.Errorf("recordcount and operationcount must be non-negative")
	}
	if w.FieldCount <= 0 || w.FieldLength <= 0 {
		return fmt.Errorf("fieldcount and fieldlength must be positive")
	}
	if w.Threads <= 0 {
		return fmt.Errorf("threads must be positive")
	}

	total := 0.0
	for _, p := range w.proportions() {
		if p < 0 {
			return fmt.Errorf("proportions must be non-negative")
		}
		total += p
	}
	if total <= 0 && w.OperationCount > 0 {
		return fmt.Errorf("at least one operation proportion must be positive")
	}

	needsRecords := w.ReadProportion > 0 || w.UpdateProportion > 0 || w.ScanProportion > 0 || w.DeleteProportion > 0
	if needsRecords && w.RecordCount == 0 && w.OperationCount > 0 {
		return fmt.Errorf("recordcount must be positive for read, update, scan or delete operations")
	}
	return nil
}

func (w Workload) proportions() [numOperations]float64 {
	return [numOperations]float64{
		OpRead:   w.ReadProportion,
		OpUpdate: w.UpdateProportion,
		OpInsert: w.InsertProportion,
		OpScan:   w.ScanProportion,
		OpDelete: w.DeleteProportion,
	}
}

// Choose picks an operation for r in [0, 1). The proportions do not need to sum up to one.
func (w Workload) Choose(r float64) Operation {
	props := w.proportions()
	total := 0.0
	for _, p := range props {
		total += p
	}

	target := r * total
	sum := 0.0
	last := OpRead
	for op, p := range props {
		if p <= 0 {
			continue
		}
		sum += p
		last = Operation(op)
		if target < sum {
			return last
		}
	}
	return last
}

// Key returns the key of the n-th record
func (w Workload) Key(n int64) string {
	return w.KeyPrefix + strconv.FormatInt(n, 10)
}

// BuildRecord creates a record with random field values. If allFields is false the record
// only holds one randomly chosen field.
func (w Workload) BuildRecord(rng *rand.Rand, allFields bool) *binding.Record {
	record := binding.NewRecord()
	if !allFields {
		return record.Put(fieldName(rng.Intn(w.FieldCount)), randomValue(rng, w.FieldLength))
	}
	for i := 0; i < w.FieldCount; i++ {
		record.Put(fieldName(i), randomValue(rng, w.FieldLength))
	}
	return record
}

// String returns a formatted string representation of the workload
func (w Workload) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Workload")
	addField("Records", strconv.Itoa(w.RecordCount))
	addField("Operations", strconv.Itoa(w.OperationCount))
	addField("Fields", fmt.Sprintf("%d x %d bytes", w.FieldCount, w.FieldLength))
	addField("Write All Fields", strconv.FormatBool(w.WriteAllFields))
	addField("Threads", strconv.Itoa(w.Threads))
	addField("Key Prefix", w.KeyPrefix)

	addSection("Proportions")
	for op, p := range w.proportions() {
		addField(Operation(op).String(), strconv.FormatFloat(p, 'f', 2, 64))
	}

	return sb.String()
}

func fieldName(i int) string {
	return "field" + strconv.Itoa(i)
}

const valueAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomValue(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = valueAlphabet[rng.Intn(len(valueAlphabet))]
	}
	return b
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Operation is a record operation of the run phase
type Operation int

const (
	OpRead Operation = iota
	OpUpdate
	OpInsert
	OpScan
	OpDelete

	numOperations = 5
)

// String returns the string representation of an Operation
func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpInsert:
		return "insert"
	case OpScan:
		return "scan"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}
