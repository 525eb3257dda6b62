package conn

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 6378
	DefaultFieldCount = 10
)

// Config holds the resolved backend settings. It is created once before the
// connection manager and never mutated afterwards (it is always passed by value).
type Config struct {
	// Hosts is the ordered list of host names or IPs. A host containing a "/" is a unix socket path.
	Hosts []string
	// Port is used for every host
	Port int
	// ConnectTimeout bounds connection setup and every backend call (0 = no timeout)
	ConnectTimeout time.Duration
	// Cluster selects the cluster handle. It is forced on when more than one host is given.
	Cluster bool
	// FieldCount is the number of fields a record is expected to have
	FieldCount int
}

// NewConfig resolves a Config. Empty hosts fall back to DefaultHost, a port <= 0 to DefaultPort
// and a field count <= 0 to DefaultFieldCount. More than one host forces cluster mode.
func NewConfig(hosts []string, port int, timeout time.Duration, cluster bool, fieldCount int) Config {
	if len(hosts) == 0 {
		hosts = []string{DefaultHost}
	}
	if port <= 0 {
		port = DefaultPort
	}
	if fieldCount <= 0 {
		fieldCount = DefaultFieldCount
	}
	if timeout < 0 {
		timeout = 0
	}

	return Config{
		Hosts:          append([]string(nil), hosts...),
		Port:           port,
		ConnectTimeout: timeout,
		Cluster:        cluster || len(hosts) > 1,
		FieldCount:     fieldCount,
	}
}

// ParseHosts splits a comma separated host list. Whitespace around hosts and empty entries are dropped.
func ParseHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// ClusterMode reports whether a cluster handle must be created
func (c Config) ClusterMode() bool {
	return c.Cluster || len(c.Hosts) > 1
}

// Addresses returns the dial address of every host in order (duplicates included)
func (c Config) Addresses() []string {
	addrs := make([]string, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		if strings.Contains(h, "/") {
			addrs = append(addrs, h) // unix socket
			continue
		}
		addrs = append(addrs, net.JoinHostPort(h, strconv.Itoa(c.Port)))
	}
	return addrs
}

// Validate checks that the configuration can be used to dial a backend
func (c Config) Validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("no hosts configured")
	}
	for i, h := range c.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("host %d is empty", i)
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("negative connect timeout %s", c.ConnectTimeout)
	}
	if c.FieldCount <= 0 {
		return fmt.Errorf("field count must be positive, got %d", c.FieldCount)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Backend")
	addField("Mode", c.variant().String())
	addField("Port", strconv.Itoa(c.Port))
	if c.ConnectTimeout > 0 {
		addField("Timeout", c.ConnectTimeout.String())
	} else {
		addField("Timeout", "none")
	}
	addField("Field Count", strconv.Itoa(c.FieldCount))

	addSection("Hosts")
	for i, addr := range c.Addresses() {
		addField(strconv.Itoa(i), addr)
	}

	return sb.String()
}

func (c Config) variant() Variant {
	if c.ClusterMode() {
		return VariantCluster
	}
	return VariantSingleNode
}

// dedupAddresses removes repeated host+port pairs, keeping the first occurrence
func dedupAddresses(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
