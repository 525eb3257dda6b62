// Package conn implements the connection manager of the record binding. It guarantees
// that every backend call is issued on a live handle and that a handle which saw a
// failure is torn down, so the next call establishes a fresh connection instead of
// reusing a possibly broken one.
//
// Key Components:
//
//   - Config: Immutable backend settings (hosts, port, timeout, cluster flag, field count).
//     More than one host always selects cluster mode.
//
//   - Manager: A two state machine (Disconnected, Connected). EnsureConnected connects lazily,
//     Invalidate closes the handle and moves back to Disconnected, Shutdown ends the life
//     of the manager. Get and Set refuse to run without a live handle.
//
//   - Variant: The kind of handle created at connect time. A single node handle talks to the
//     first address, a cluster handle to the deduplicated set of all addresses. How keys are
//     routed inside a cluster is up to the backend.IDialer.
//
//   - ConnectionError: Returned when the handle could not be established. The manager never
//     retries a connect on its own.
//
// Usage Example:
//
//	config := conn.NewConfig(conn.ParseHosts("10.0.0.1,10.0.0.2"), 6378, time.Second, false, 10)
//	m := conn.NewManager(config, resp.NewDialer(nil))
//	defer m.Shutdown()
//
//	if err := m.EnsureConnected(); err != nil {
//		return err
//	}
//	if err := m.Set("user1", value); err != nil {
//		m.Invalidate() // the next EnsureConnected dials again
//	}
//
// Thread Safety:
//
//	A Manager holds mutable connection state without locks and must be owned by a single
//	goroutine. Concurrent workers each create their own Manager.
package conn
