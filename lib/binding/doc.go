// Package binding implements the record store a benchmark harness drives. It maps the generic
// record operations (read, insert, update, delete, scan) onto the single key GET and SET calls
// of a backend reached through a connection manager (see package conn).
//
// Payload policy:
//
// Records are not stored field by field. The payload of the first field (in insertion order) is
// repeated once per logical field and written as one opaque value:
//
//	effective = max(len(record), fieldcount)
//	stored    = first field payload repeated effective times (no separator)
//
// so the size of a stored value is len(first) * effective, no matter how many fields the caller
// supplied. An update with fewer fields therefore keeps the size of the record stable. A record
// without any field reuses the last payload written by the same store.
//
// Failure handling:
//
//   - Read: a single attempt. A missing value or a failure is returned as an *Error with code
//     RetCReadError. The connection is left alone unless Options.InvalidateOnReadError is set.
//   - Insert / Update: up to InsertRetries (3) / UpdateRetries (1) attempts. Every failed
//     attempt invalidates the connection, the next attempt reconnects. When all attempts fail an
//     *Error with code RetCWriteError carrying the last cause is returned.
//   - Delete / Scan: always ErrNotImplemented, the backend is never called.
//
// StatusOf maps any returned error to the Status reported to the harness.
//
// Usage Example:
//
//	manager := conn.NewManager(config, dialer)
//	store := binding.NewRecordStore(manager, binding.DefaultOptions(config.FieldCount))
//	defer store.Cleanup()
//
//	err := store.Insert("user1", binding.NewRecord().Put("field0", payload))
//	if binding.StatusOf(err) != binding.StatusOK {
//		// ...
//	}
//
// A RecordStore is not safe for concurrent use. Each worker creates its own manager and store,
// only a *Metrics instance may be shared between them.
package binding
