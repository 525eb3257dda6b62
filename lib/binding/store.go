package binding

import (
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("binding")

const (
	DefaultInsertRetries = 3
	DefaultUpdateRetries = 1
)

// Options tune a RecordStore
type Options struct {
	// FieldCount is the configured number of fields per record (see EffectiveFieldCount)
	FieldCount int
	// InsertRetries is the number of write attempts for an insert (values < 1 are treated as 1)
	InsertRetries int
	// UpdateRetries is the number of write attempts for an update (values < 1 are treated as 1)
	UpdateRetries int
	// InvalidateOnReadError makes a failed read tear down the connection as well. Off by default,
	// a failed read is only reported.
	InvalidateOnReadError bool
	// Metrics is optional and may be shared between stores
	Metrics *Metrics
}

// DefaultOptions returns the default options for the given field count
func DefaultOptions(fieldCount int) Options {
	return Options{
		FieldCount:    fieldCount,
		InsertRetries: DefaultInsertRetries,
		UpdateRetries: DefaultUpdateRetries,
	}
}

type writeOp uint8

const (
	opInsert writeOp = iota
	opUpdate
)

func (o writeOp) String() string {
	if o == opUpdate {
		return "update"
	}
	return "insert"
}

// RecordStore maps record operations onto single key backend calls. Records are flattened into
// one stored value (see Normalize), writes are retried with a fresh connection after every
// failure, reads are single attempts.
//
// Thread-safety: A RecordStore and its connection are owned by a single goroutine. Concurrent
// workers each need their own store and connection.
type RecordStore struct {
	conn IConnection
	opts Options

	stash   []byte
	stashed bool
}

// NewRecordStore creates a record store on top of a connection
func NewRecordStore(conn IConnection, opts Options) *RecordStore {
	if opts.FieldCount < 0 {
		opts.FieldCount = 0
	}
	opts.InsertRetries = max(opts.InsertRetries, 1)
	opts.UpdateRetries = max(opts.UpdateRetries, 1)

	return &RecordStore{
		conn: conn,
		opts: opts,
	}
}

// Init connects eagerly so configuration problems surface before the first operation
func (s *RecordStore) Init() error {
	return s.conn.EnsureConnected()
}

// Cleanup shuts the connection down. The store must not be used afterwards.
func (s *RecordStore) Cleanup() {
	s.conn.Shutdown()
}

// Options returns the effective options of the store
func (s *RecordStore) Options() Options {
	return s.opts
}

// --------------------------------------------------------------------------
// Record Operations
// --------------------------------------------------------------------------

// Read returns the stored value of a key as a record with a single field named after the key.
// A missing value or any failure is returned as a read error (errors.Is(err, ErrNotFound) tells
// both apart). Reads are never retried.
func (s *RecordStore) Read(key string) (record *Record, err error) {
	start := time.Now()
	defer func() { s.opts.Metrics.observeRead(start, err) }()

	if err := s.conn.EnsureConnected(); err != nil {
		return nil, s.readFailed(key, err)
	}

	value, loaded, err := s.conn.Get(key)
	if err != nil {
		return nil, s.readFailed(key, err)
	}
	if !loaded {
		return nil, newError(RetCReadError, key, 1, ErrNotFound)
	}

	return NewRecord().Put(key, value), nil
}

// Insert writes a record, with up to Options.InsertRetries attempts
func (s *RecordStore) Insert(key string, record *Record) error {
	return s.writeNormalized(opInsert, key, record, s.opts.InsertRetries)
}

// Update writes a record, with up to Options.UpdateRetries attempts
func (s *RecordStore) Update(key string, record *Record) error {
	return s.writeNormalized(opUpdate, key, record, s.opts.UpdateRetries)
}

// Delete is not supported and never touches the backend
func (s *RecordStore) Delete(key string) error {
	s.opts.Metrics.incNotImplemented()
	return ErrNotImplemented
}

// Scan is not supported and never touches the backend
func (s *RecordStore) Scan(startKey string, count int, fields []string) ([]*Record, error) {
	s.opts.Metrics.incNotImplemented()
	return nil, ErrNotImplemented
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RecordStore) readFailed(key string, cause error) error {
	Logger.Debugf("read of %q failed: %v", key, cause)
	if s.opts.InvalidateOnReadError {
		s.invalidate()
	}
	return newError(RetCReadError, key, 1, cause)
}

// writeNormalized flattens the record and writes it with up to retries attempts. Every failed
// attempt invalidates the connection, so the next attempt runs on a fresh handle.
func (s *RecordStore) writeNormalized(op writeOp, key string, record *Record, retries int) (err error) {
	start := time.Now()
	size := 0
	defer func() { s.opts.Metrics.observeWrite(op, start, size, err) }()

	source, ok := s.sourcePayload(record)
	if !ok {
		return newError(RetCWriteError, key, 0, ErrEmptyRecord)
	}

	value := Normalize(source, EffectiveFieldCount(record.Len(), s.opts.FieldCount))
	size = len(value)

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		s.opts.Metrics.incWriteAttempt()

		if lastErr = s.trySet(key, value); lastErr == nil {
			return nil
		}

		Logger.Debugf("%s of %q failed (attempt %d/%d): %v", op, key, attempt, retries, lastErr)
		s.invalidate()
	}

	Logger.Errorf("%s of %q failed after %d attempt(s): %v", op, key, retries, lastErr)
	return newError(RetCWriteError, key, retries, lastErr)
}

func (s *RecordStore) trySet(key string, value []byte) error {
	if err := s.conn.EnsureConnected(); err != nil {
		return err
	}
	return s.conn.Set(key, value)
}

// sourcePayload returns the payload of the first field and stashes it. An empty record
// falls back to the last stashed payload.
func (s *RecordStore) sourcePayload(record *Record) ([]byte, bool) {
	if first, ok := record.First(); ok {
		s.stash = append(s.stash[:0], first.Value...)
		s.stashed = true
		return first.Value, true
	}
	return s.stash, s.stashed
}

func (s *RecordStore) invalidate() {
	s.opts.Metrics.incInvalidation()
	s.conn.Invalidate()
}
