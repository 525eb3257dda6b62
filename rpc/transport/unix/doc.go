// Package unix implements the rpc transport over Unix domain sockets, for a benchmark
// client and server running on the same machine. The endpoint is the socket path.
//
// Key Components:
//
//   - clientConnector: Dials the socket path with the configured timeout
//
//   - serverConnector: Removes a stale socket file and listens on the path
package unix
