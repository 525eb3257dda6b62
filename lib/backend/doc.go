// Package backend defines the key-value capability used by the record binding and the
// building blocks shared by all concrete backends.
//
// The package focuses on:
//   - A minimal interface (IBackend) with Get, Set and Close
//   - A dialer abstraction (IDialer) that creates single-node or cluster handles
//   - Client-side sharding for protocols without built-in cluster routing
//
// Key Components:
//
//   - IBackend: The capability consumed by lib/conn. A backend is a live session; once an
//     operation fails the connection manager throws it away and dials a new one.
//
//   - IDialer: Creates backends. Each protocol package provides one (rpc/client for dKV,
//     lib/backend/resp for Redis-compatible servers).
//
//   - Ring: A consistent hash ring with virtual nodes. Keys are hashed with FNV-1a, so
//     the same key always maps to the same node as long as the node set is unchanged.
//
//   - Sharded: An IBackend that routes every key to one of several node backends using a Ring.
//     Used as the cluster handle for protocols that do not route keys themselves.
//
// Implementations:
//
//   - memory: A thread-safe in-memory backend (github.com/ValentinKolb/kvbind/lib/backend/memory)
//   - resp: Redis protocol via go-redis (github.com/ValentinKolb/kvbind/lib/backend/resp)
//   - rpc/client: dKV protocol over the rpc transport layer
//
// A conformance suite for IBackend implementations is available in lib/backend/testing.
package backend
