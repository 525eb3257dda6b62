// Package rpc provides the dKV protocol used by kvbind to talk to a key-value server.
// It is one of the backends the record binding can be pointed at, next to any
// Redis-compatible server (see lib/backend/resp).
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Framed socket communication with pluggable implementations
//     (TCP, Unix sockets). Transports never retry on their own.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: A backend.IBackend and backend.IDialer speaking the protocol, for single
//     nodes and sharded clusters.
//
//   - server: The RPC server serving in-memory shards.
package rpc
