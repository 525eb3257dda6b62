// Package common provides the data structures shared by the rpc client and server
// of the dKV wire protocol.
//
// Key Components:
//
//   - Message: The single structure used for requests and responses. Only the
//     operations a record binding needs are defined (get and set), plus the generic
//     success and error replies.
//
//   - ServerConfig / ClientConfig / TransportConfig: Settings of the rpc server
//     and of one client transport. Both print themselves in the same sectioned
//     format used by the CLI.
//
//   - Logger: A logger factory for dragonboats logger package with a consistent
//     "LEVEL | name | message" format. InitLoggers sets the level of every logger of
//     the module.
package common
