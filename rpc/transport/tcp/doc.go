// Package tcp implements the TCP socket transport of the rpc system. It provides the
// connectors for the base package, all framing and request correlation lives there.
//
// Key Components:
//
//   - clientConnector: Dials an endpoint (host:port) with the configured timeout
//
//   - serverConnector: Listens on the configured endpoint
//
// Both sides apply the TCP socket settings of common.TransportConfig (no delay, buffer
// sizes, keep alive) to every connection.
package tcp
