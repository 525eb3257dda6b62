package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the rpc server
type ServerConfig struct {
	// Shards are the shard ids served by the server, each backed by an in-memory store
	Shards []uint64

	// TimeoutSecond is the read/write deadline of a connection (0 = none)
	TimeoutSecond int64

	// Endpoint is the address (tcp) or socket path (unix) the server listens on
	Endpoint string

	// Logging configuration
	LogLevel string

	// Transport settings
	Transport TransportConfig
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	c.Transport.addFields(addField)

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")
	for i, shard := range c.Shards {
		addField(strconv.Itoa(i), strconv.FormatUint(shard, 10))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of one client transport
type ClientConfig struct {
	// Endpoints the transport connects to
	Endpoints []string
	// Timeout bounds dialing and every request (0 = no timeout)
	Timeout time.Duration
	// Transport settings
	Transport TransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	if c.Timeout > 0 {
		addField("Timeout", c.Timeout.String())
	} else {
		addField("Timeout", "none")
	}
	c.Transport.addFields(addField)

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Transport configuration struct
// --------------------------------------------------------------------------

const (
	DefaultBufferSize = 512 * 1024
)

// TransportConfig holds the socket settings shared by client and server
type TransportConfig struct {
	// WriteBufferSize and ReadBufferSize are the sizes of the buffered reader/writer per connection
	WriteBufferSize int
	ReadBufferSize  int
	// TCPNoDelay disables Nagle's algorithm for tcp connections
	TCPNoDelay bool
	// TCPKeepAliveSec is the keep alive period of tcp connections (0 = os default)
	TCPKeepAliveSec int
}

// DefaultTransportConfig returns the transport settings used if nothing else is configured
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		WriteBufferSize: DefaultBufferSize,
		ReadBufferSize:  DefaultBufferSize,
		TCPNoDelay:      true,
	}
}

// Buffers returns the buffer sizes, falling back to DefaultBufferSize for unset values
func (c TransportConfig) Buffers() (read, write int) {
	read, write = c.ReadBufferSize, c.WriteBufferSize
	if read <= 0 {
		read = DefaultBufferSize
	}
	if write <= 0 {
		write = DefaultBufferSize
	}
	return read, write
}

func (c TransportConfig) addFields(addField func(name, value string)) {
	read, write := c.Buffers()
	addField("Read Buffer", strconv.Itoa(read))
	addField("Write Buffer", strconv.Itoa(write))
	addField("TCP No Delay", strconv.FormatBool(c.TCPNoDelay))
	if c.TCPKeepAliveSec > 0 {
		addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))
	}
}
