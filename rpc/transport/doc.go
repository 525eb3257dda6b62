// Package transport defines the interfaces for moving rpc frames between a client and a
// server. It is independent of the serialization (see package serializer) and of the
// socket type (see packages tcp and unix).
//
// Key Components:
//
//   - IRPCClientTransport: Client side. Connects to one or more endpoints and sends
//     requests for a shard id. It never retries or reconnects, a connection that saw an
//     I/O error stays broken (ErrBroken) until the transport is replaced.
//
//   - IRPCServerTransport: Server side. Accepts connections and routes every request to
//     the registered ServerHandleFunc. Close stops the server.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
package transport
