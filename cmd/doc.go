// Package cmd implements the command-line interface of kvbind. It provides a
// hierarchical command structure for running a local server, single record
// operations and the benchmark driver.
//
// The package is organized into several subpackages:
//
//   - kv: Single record operations (read, insert, update, delete, scan)
//   - bench: Workload driver with load and run phases
//   - serve: Commands for starting an in-memory dKV protocol server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvbind -help for a list of all commands.
package cmd
