package binding

import (
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// DefaultMetricsPrefix is used if NewMetrics is called with an empty prefix
const DefaultMetricsPrefix = "kvbind"

// Metrics instruments record stores. One Metrics may be shared by the stores of all workers,
// all counters and histograms are safe for concurrent use. A nil *Metrics disables instrumentation.
type Metrics struct {
	set *metrics.Set

	readTotal      *metrics.Counter
	readErrors     *metrics.Counter
	readNotFound   *metrics.Counter
	readDuration   *metrics.Histogram
	insertTotal    *metrics.Counter
	insertErrors   *metrics.Counter
	updateTotal    *metrics.Counter
	updateErrors   *metrics.Counter
	writeAttempts  *metrics.Counter
	writeDuration  *metrics.Histogram
	storedBytes    *metrics.Counter
	notImplemented *metrics.Counter
	invalidations  *metrics.Counter
}

// NewMetrics creates the binding metrics in the given set (a new set if nil)
func NewMetrics(prefix string, set *metrics.Set) *Metrics {
	if prefix == "" {
		prefix = DefaultMetricsPrefix
	}
	if set == nil {
		set = metrics.NewSet()
	}

	name := func(s string) string {
		return prefix + "_" + s
	}

	return &Metrics{
		set:            set,
		readTotal:      set.GetOrCreateCounter(name("read_total")),
		readErrors:     set.GetOrCreateCounter(name("read_errors_total")),
		readNotFound:   set.GetOrCreateCounter(name("read_not_found_total")),
		readDuration:   set.GetOrCreateHistogram(name("read_duration_seconds")),
		insertTotal:    set.GetOrCreateCounter(name(`write_total{op="insert"}`)),
		insertErrors:   set.GetOrCreateCounter(name(`write_errors_total{op="insert"}`)),
		updateTotal:    set.GetOrCreateCounter(name(`write_total{op="update"}`)),
		updateErrors:   set.GetOrCreateCounter(name(`write_errors_total{op="update"}`)),
		writeAttempts:  set.GetOrCreateCounter(name("write_attempts_total")),
		writeDuration:  set.GetOrCreateHistogram(name("write_duration_seconds")),
		storedBytes:    set.GetOrCreateCounter(name("stored_bytes_total")),
		notImplemented: set.GetOrCreateCounter(name("not_implemented_total")),
		invalidations:  set.GetOrCreateCounter(name("invalidations_total")),
	}
}

// Set returns the underlying metrics set
func (m *Metrics) Set() *metrics.Set {
	return m.set
}

// WritePrometheus writes all metrics in Prometheus text format to w
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Recording (all methods are nil safe)
// --------------------------------------------------------------------------

func (m *Metrics) observeRead(start time.Time, err error) {
	if m == nil {
		return
	}
	m.readTotal.Inc()
	m.readDuration.UpdateDuration(start)
	switch StatusOf(err) {
	case StatusNotFound:
		m.readNotFound.Inc()
	case StatusError:
		m.readErrors.Inc()
	}
}

func (m *Metrics) observeWrite(op writeOp, start time.Time, size int, err error) {
	if m == nil {
		return
	}
	m.writeDuration.UpdateDuration(start)

	total, errs := m.insertTotal, m.insertErrors
	if op == opUpdate {
		total, errs = m.updateTotal, m.updateErrors
	}
	total.Inc()
	if err != nil {
		errs.Inc()
		return
	}
	m.storedBytes.Add(size)
}

func (m *Metrics) incWriteAttempt() {
	if m != nil {
		m.writeAttempts.Inc()
	}
}

func (m *Metrics) incInvalidation() {
	if m != nil {
		m.invalidations.Inc()
	}
}

func (m *Metrics) incNotImplemented() {
	if m != nil {
		m.notImplemented.Inc()
	}
}
