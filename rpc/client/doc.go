// Package client implements the dKV rpc protocol as a backend for the record binding.
//
// Key Components:
//
//   - NewRPCBackend: Connects a transport and returns a backend.IBackend that forwards Get
//     and Set to one shard of the server. A Set counts as successful only if the server
//     acknowledges it with a success message.
//
//   - NewDialer: A backend.IDialer. A single node handle is one transport to one endpoint, a
//     cluster handle is one transport per node combined with backend.Sharded, so every key
//     is always sent to the same node.
//
//   - TransportFactory: Chooses the client transport per address. AutoTransport uses a
//     unix socket for paths and tcp otherwise.
//
// Usage Example:
//
//	dialer := client.NewDialer(100, client.AutoTransport, serializer.NewBinarySerializer(), common.ClientConfig{
//		Transport: common.DefaultTransportConfig(),
//	})
//	manager := conn.NewManager(config, dialer)
//
// Failure Behaviour:
//
//	The transports never retry. A broken connection makes every further call of the handle
//	fail until the connection manager replaces it.
//
// Thread Safety:
//
//	Backends and dialers are safe for concurrent use.
package client
