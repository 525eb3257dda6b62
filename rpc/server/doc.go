// Package server implements the RPC server that hosts the key-value shards the record
// binding talks to over the dKV protocol.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a backend.IBackend.
//
//   - NewBackendServerAdapter: Factory function creating an adapter that translates
//     get and set requests into backend calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms. Every configured shard is an in-memory store.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards:        []uint64{100},
//	  Endpoint:      "0.0.0.0:6378",
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	  Transport:     common.DefaultTransportConfig(),
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server can handle concurrent requests across multiple connections.
//	Serve must be called only once.
package server
