package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	backendtesting "github.com/ValentinKolb/kvbind/lib/backend/testing"
	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/ValentinKolb/kvbind/lib/conn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(dialer *backendtesting.FakeDialer, fieldCount int) StoreFactory {
	return func() (*binding.RecordStore, error) {
		manager := conn.NewManager(conn.NewConfig(nil, 0, 0, false, fieldCount), dialer)
		return binding.NewRecordStore(manager, binding.DefaultOptions(fieldCount)), nil
	}
}

func TestRunnerLoadAndRun(t *testing.T) {
	w := DefaultWorkload()
	w.RecordCount, w.OperationCount, w.Threads = 100, 400, 4
	w.FieldCount, w.FieldLength = 5, 4
	w.ReadProportion, w.UpdateProportion, w.InsertProportion = 0.4, 0.3, 0.1
	w.ScanProportion, w.DeleteProportion = 0.1, 0.1
	require.NoError(t, w.Validate())

	dialer := backendtesting.NewFakeDialer()

	loader := NewRunner(w, newFactory(dialer, w.FieldCount))
	require.NoError(t, loader.Load(context.Background()))
	assert.Equal(t, 100, dialer.Store().Len())

	results := loader.Results(time.Second)
	require.Len(t, results, 1)
	assert.Equal(t, "insert", results[0].Operation)
	assert.Equal(t, int64(100), results[0].Count)
	assert.Equal(t, map[string]int64{"OK": 100}, results[0].Statuses)

	// every stored value is the first field scaled to the field count
	value, loaded, err := dialer.Store().Get("user0")
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Len(t, value, w.FieldLength*w.FieldCount)

	runner := NewRunner(w, newFactory(dialer, w.FieldCount))
	require.NoError(t, runner.Run(context.Background()))

	var total int64
	for _, r := range runner.Results(time.Second) {
		total += r.Count
		switch r.Operation {
		case "scan", "delete":
			assert.Equal(t, map[string]int64{"NOT_IMPLEMENTED": r.Count}, r.Statuses)
		default:
			assert.Equal(t, map[string]int64{"OK": r.Count}, r.Statuses, r.Operation)
		}
	}
	assert.Equal(t, int64(w.OperationCount), total)

	// inserts of the run phase continue after the loaded records
	assert.Greater(t, dialer.Store().Len(), 100)
}

func TestRunnerCountsErrors(t *testing.T) {
	w := DefaultWorkload()
	w.RecordCount, w.OperationCount, w.Threads = 10, 0, 1

	dialer := backendtesting.NewFakeDialer()
	dialer.FailSets(1000, nil)

	runner := NewRunner(w, newFactory(dialer, w.FieldCount))
	require.NoError(t, runner.Load(context.Background()))

	results := runner.Results(0)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]int64{"ERROR": 10}, results[0].Statuses)
	assert.Zero(t, results[0].OpsPerSec)
}

func TestRunnerCancelled(t *testing.T) {
	w := DefaultWorkload()
	w.RecordCount, w.Threads = 1000, 2

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialer := backendtesting.NewFakeDialer()
	err := NewRunner(w, newFactory(dialer, w.FieldCount)).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, dialer.Store().Len())
}

func TestReport(t *testing.T) {
	results := []Result{{
		Operation: "read",
		Count:     10,
		OpsPerSec: 5,
		Mean:      time.Millisecond,
		Statuses:  map[string]int64{"OK": 9, "NOT_FOUND": 1},
	}}

	var buf bytes.Buffer
	PrintSummary(&buf, "run", 2*time.Second, results)
	assert.Contains(t, buf.String(), "[RUN]")
	assert.Contains(t, buf.String(), "NOT_FOUND=1 OK=9")

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteCSV(path, "run", results, DefaultWorkload(), "dkv"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Phase", rows[0][0])
	assert.Equal(t, []string{"run", "read", "10", "5", "1000000"}, rows[1][:5])
	assert.Equal(t, "dkv", rows[1][10])
}
