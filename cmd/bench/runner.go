package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("bench")

// StoreFactory creates a new, uninitialized record store. Every worker gets its own store.
type StoreFactory func() (*binding.RecordStore, error)

// Runner executes the load and run phase of a workload
type Runner struct {
	workload   Workload
	newStore   StoreFactory
	registry   metrics.Registry
	nextInsert atomic.Int64
}

// NewRunner creates a runner for a validated workload
func NewRunner(workload Workload, newStore StoreFactory) *Runner {
	r := &Runner{
		workload: workload,
		newStore: newStore,
		registry: metrics.NewRegistry(),
	}
	r.nextInsert.Store(int64(workload.RecordCount))
	return r
}

// Registry returns the registry holding the timers and status counters
func (r *Runner) Registry() metrics.Registry {
	return r.registry
}

// Load inserts the records 0..RecordCount-1, split evenly across the threads
func (r *Runner) Load(ctx context.Context) error {
	return r.parallel(ctx, r.workload.RecordCount, func(ctx context.Context, store *binding.RecordStore, rng *rand.Rand, from, to int) {
		for i := from; i < to && ctx.Err() == nil; i++ {
			record := r.workload.BuildRecord(rng, true)
			r.do(OpInsert, func() error { return store.Insert(r.workload.Key(int64(i)), record) })
		}
	})
}

// Run executes OperationCount operations, split evenly across the threads
func (r *Runner) Run(ctx context.Context) error {
	return r.parallel(ctx, r.workload.OperationCount, func(ctx context.Context, store *binding.RecordStore, rng *rand.Rand, from, to int) {
		for i := from; i < to && ctx.Err() == nil; i++ {
			r.runOne(store, rng)
		}
	})
}

// Results returns the results of all operations that were executed at least once
func (r *Runner) Results(elapsed time.Duration) []Result {
	var results []Result
	for op := Operation(0); op < numOperations; op++ {
		timer, ok := r.registry.Get(timerName(op)).(metrics.Timer)
		if !ok {
			continue
		}
		snapshot := timer.Snapshot()
		if snapshot.Count() == 0 {
			continue
		}

		ps := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})
		result := Result{
			Operation: op.String(),
			Count:     snapshot.Count(),
			Mean:      time.Duration(snapshot.Mean()),
			P50:       time.Duration(ps[0]),
			P95:       time.Duration(ps[1]),
			P99:       time.Duration(ps[2]),
			Max:       time.Duration(snapshot.Max()),
			Statuses:  make(map[string]int64),
		}
		if elapsed > 0 {
			result.OpsPerSec = float64(result.Count) / elapsed.Seconds()
		}
		for _, status := range []binding.Status{binding.StatusOK, binding.StatusNotFound, binding.StatusNotImplemented, binding.StatusError} {
			if c, ok := r.registry.Get(counterName(op, status)).(metrics.Counter); ok && c.Count() > 0 {
				result.Statuses[status.String()] = c.Count()
			}
		}
		results = append(results, result)
	}
	return results
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

type workFunc func(ctx context.Context, store *binding.RecordStore, rng *rand.Rand, from, to int)

// parallel splits n items across the threads. Each worker creates its own store.
func (r *Runner) parallel(ctx context.Context, n int, work workFunc) error {
	threads := r.workload.Threads
	errs := make([]error, threads)

	var wg sync.WaitGroup
	for t := 0; t < threads; t++ {
		from, to := n*t/threads, n*(t+1)/threads

		wg.Add(1)
		go func(t, from, to int) {
			defer wg.Done()

			store, err := r.newStore()
			if err != nil {
				errs[t] = fmt.Errorf("worker %d: %w", t, err)
				return
			}
			defer store.Cleanup()

			// a failed init is not fatal, every operation reconnects on its own
			if err := store.Init(); err != nil {
				Logger.Warningf("worker %d: init failed: %v", t, err)
			}

			rng := rand.New(rand.NewSource(r.workload.Seed + int64(t)))
			work(ctx, store, rng, from, to)
		}(t, from, to)
	}
	wg.Wait()

	return errors.Join(append(errs, ctx.Err())...)
}

func (r *Runner) runOne(store *binding.RecordStore, rng *rand.Rand) {
	w := r.workload
	switch op := w.Choose(rng.Float64()); op {
	case OpRead:
		key := w.Key(int64(rng.Intn(w.RecordCount)))
		r.do(op, func() error { _, err := store.Read(key); return err })
	case OpUpdate:
		key := w.Key(int64(rng.Intn(w.RecordCount)))
		record := w.BuildRecord(rng, w.WriteAllFields)
		r.do(op, func() error { return store.Update(key, record) })
	case OpInsert:
		key := w.Key(r.nextInsert.Add(1) - 1)
		record := w.BuildRecord(rng, true)
		r.do(op, func() error { return store.Insert(key, record) })
	case OpScan:
		key := w.Key(int64(rng.Intn(w.RecordCount)))
		count := 1 + rng.Intn(max(w.MaxScanLength, 1))
		r.do(op, func() error { _, err := store.Scan(key, count, nil); return err })
	case OpDelete:
		key := w.Key(int64(rng.Intn(w.RecordCount)))
		r.do(op, func() error { return store.Delete(key) })
	}
}

// do times one operation and counts its status
func (r *Runner) do(op Operation, fn func() error) {
	start := time.Now()
	err := fn()
	metrics.GetOrRegisterTimer(timerName(op), r.registry).UpdateSince(start)

	status := binding.StatusOf(err)
	metrics.GetOrRegisterCounter(counterName(op, status), r.registry).Inc(1)
	if status == binding.StatusError {
		Logger.Debugf("%s failed: %v", op, err)
	}
}

func timerName(op Operation) string {
	return op.String()
}

func counterName(op Operation, status binding.Status) string {
	return op.String() + "." + status.String()
}
