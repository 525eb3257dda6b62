package base

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint. A timeout of zero means no timeout.
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.TransportConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection. Once broken it is never used again.
type clientConnection struct {
	conn     net.Conn
	endpoint string
	pending  *xsync.MapOf[uint64, chan responseResult]
	writeMu  sync.Mutex // Protects writes to the connection

	done     chan struct{} // Closed when the connection is broken or closed
	failOnce sync.Once
	failErr  error // Set before done is closed
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64 // Atomic counter for Round Robin
	nextRequestID uint64 // Atomic counter for unique request IDs
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()
	t.config = config

	connections := make([]*clientConnection, 0, len(config.Endpoints))
	for _, endpoint := range config.Endpoints {
		c, err := t.dial(endpoint)
		if err != nil {
			for _, established := range connections {
				established.fail(transport.ErrClosed)
			}
			return err
		}
		connections = append(connections, c)
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Debugf("Connected to %d endpoint(s) using %s transport", len(connections), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	c := t.getNextConnection()
	if c == nil {
		return nil, transport.ErrClosed
	}

	requestID := atomic.AddUint64(&t.nextRequestID, 1)
	return c.roundTrip(shardId, requestID, req, t.config.Timeout)
}

func (t *clientTransport) Close() error {
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dial connects to one endpoint and starts the response reader
func (t *clientTransport) dial(endpoint string) (*clientConnection, error) {
	conn, err := t.connector.Connect(endpoint, t.config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	if err := t.connector.UpgradeConnection(conn, t.config.Transport); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}

	c := &clientConnection{
		conn:     conn,
		endpoint: endpoint,
		pending:  xsync.NewMapOf[uint64, chan responseResult](),
		done:     make(chan struct{}),
	}

	readBufferSize, _ := t.config.Transport.Buffers()
	go c.readResponses(readBufferSize)

	return c, nil
}

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	default:
		index := atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
		return t.connections[index]
	}
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	for _, c := range t.connections {
		c.fail(transport.ErrClosed)
	}
	t.connections = nil
}

// roundTrip writes one request and waits for its response
func (c *clientConnection) roundTrip(shardId, requestID uint64, req []byte, timeout time.Duration) ([]byte, error) {
	if err := c.err(); err != nil {
		return nil, err
	}

	// Register before writing, the response may arrive before Send gets to wait for it
	respCh := make(chan responseResult, 1)
	c.pending.Store(requestID, respCh)
	defer c.pending.Delete(requestID)

	c.writeMu.Lock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(c.conn, shardId, requestID, req)
	c.writeMu.Unlock()

	if err != nil {
		c.fail(fmt.Errorf("%w: write to %s: %v", transport.ErrBroken, c.endpoint, err))
		return nil, c.err()
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-c.done:
		return nil, c.failErr
	case <-timeoutCh:
		return nil, fmt.Errorf("%w: request %d to %s after %s", transport.ErrTimeout, requestID, c.endpoint, timeout)
	}
}

// readResponses reads responses in a loop and distributes them to waiting requests.
// It stops at the first read error, which breaks the connection.
func (c *clientConnection) readResponses(bufferSize int) {
	r := bufio.NewReaderSize(c.conn, bufferSize)

	for {
		// Every frame gets its own buffer since the data is handed to another goroutine
		shardID, requestID, data, err := readFrame(r, nil)
		if err != nil {
			c.fail(fmt.Errorf("%w: read from %s: %v", transport.ErrBroken, c.endpoint, err))
			return
		}

		respCh, found := c.pending.Load(requestID)
		if !found {
			// e.g. the request timed out already
			Logger.Warningf("Received response for unknown request ID %d with shard ID %d", requestID, shardID)
			continue
		}

		select {
		case respCh <- responseResult{data: data}:
		default:
			Logger.Warningf("Dropped duplicate response for request ID %d", requestID)
		}
	}
}

// fail marks the connection as unusable, closes it and wakes up all waiting requests
func (c *clientConnection) fail(err error) {
	c.failOnce.Do(func() {
		c.failErr = err
		close(c.done)
		_ = c.conn.Close()

		if err != transport.ErrClosed {
			Logger.Debugf("Connection to %s failed: %v", c.endpoint, err)
		}
	})
}

// err returns the error that broke the connection, nil while it is usable
func (c *clientConnection) err() error {
	select {
	case <-c.done:
		return c.failErr
	default:
		return nil
	}
}
