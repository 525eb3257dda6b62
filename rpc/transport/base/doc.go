// Package base implements the protocol independent part of the rpc transports. The tcp
// and unix packages only provide connectors.
//
// Frame format (all integers big endian):
//
//	[shardId:8][requestId:8][length:4][payload:length]
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Socket specific dialing, listening and
//     connection tuning.
//
//   - clientTransport: One connection per endpoint, requests are spread round robin.
//     Requests are written under a lock and answered asynchronously, a reader goroutine
//     correlates responses by request id (xsync.MapOf of waiting requests). A read or write
//     error breaks the connection: all waiting requests fail and so does every later one.
//     Timeouts only fail the request that timed out.
//
//   - serverTransport: Accepts connections and handles up to maxWorkersPerConn requests
//     of a connection concurrently. Read buffers are pooled (sync.Pool).
//
// Thread Safety:
//
//	All public methods are thread-safe.
package base
