package transport

import (
	"errors"
	"net"

	"github.com/ValentinKolb/kvbind/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes a shardId and a request as parameters and returns a response
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and serves incoming requests.
	// It blocks until Close is called (returning nil) or the listener can not be created.
	Listen(config common.ServerConfig) error
	// Addr returns the address the transport listens on, nil if it is not listening (yet)
	Addr() net.Addr
	// Close stops listening and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
// A client transport never retries or reconnects on its own. After an I/O error the affected
// connection is broken and every further request on it fails, the owner is expected to
// close the transport and create a new one.
type IRPCClientTransport interface {
	// Connect connects to all endpoints of the configuration, it fails if any endpoint can not be reached
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrClosed is returned by Send after the transport was closed
	ErrClosed = errors.New("transport: closed")
	// ErrTimeout is returned by Send if no response arrived within the configured timeout
	ErrTimeout = errors.New("transport: request timed out")
	// ErrBroken is wrapped by all errors of a connection that saw an I/O error
	ErrBroken = errors.New("transport: connection broken")
)
