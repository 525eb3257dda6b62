package backend

import (
	"errors"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IBackend is the capability the binding consumes from a key-value backend.
// Implementations only need to offer a single-key read, a single-key write and a way to release
// the underlying resources. Nothing else about the wire protocol is assumed.
type IBackend interface {
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Set stores the value for a key. Any non-success acknowledgement of the backend must be reported as an error.
	Set(key string, value []byte) (err error)
	// Close releases the connection(s) held by the backend. The backend must not be used afterwards.
	Close() (err error)
}

// IDialer creates backend handles. A dialer knows how to reach one kind of backend (e.g. dKV or a
// Redis-compatible server) either as a single node or as a sharded cluster.
type IDialer interface {
	// DialNode connects to a single node. A timeout of zero means no timeout.
	DialNode(addr string, timeout time.Duration) (IBackend, error)
	// DialCluster connects to a cluster made up of the given (already deduplicated) addresses.
	DialCluster(addrs []string, timeout time.Duration) (IBackend, error)
	// GetName returns the name of the protocol spoken by the dialer (e.g. "dkv", "resp")
	GetName() string
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrUnexpectedReply is returned by Set when the backend answered with something other than a success acknowledgement.
	ErrUnexpectedReply = errors.New("backend: unexpected reply")
	// ErrClosed is returned by operations on a backend that was already closed.
	ErrClosed = errors.New("backend: closed")
)
