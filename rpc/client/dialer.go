package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/transport"
	"github.com/ValentinKolb/kvbind/rpc/transport/tcp"
	"github.com/ValentinKolb/kvbind/rpc/transport/unix"
)

// TransportFactory creates a new, unconnected client transport for an address
type TransportFactory func(addr string) transport.IRPCClientTransport

// AutoTransport uses a unix transport for socket paths (addresses containing a "/")
// and a tcp transport for everything else
func AutoTransport(addr string) transport.IRPCClientTransport {
	if strings.Contains(addr, "/") {
		return unix.NewUnixClientTransport()
	}
	return tcp.NewTCPClientTransport()
}

// TCPTransport always uses a tcp transport
func TCPTransport(string) transport.IRPCClientTransport {
	return tcp.NewTCPClientTransport()
}

// UnixTransport always uses a unix transport
func UnixTransport(string) transport.IRPCClientTransport {
	return unix.NewUnixClientTransport()
}

// NewDialer creates a backend.IDialer for the dKV rpc protocol. Every handle it creates
// talks to the given shard. The timeout passed to DialNode / DialCluster overrides
// config.Timeout, the endpoints of config are ignored.
func NewDialer(
	shardId uint64,
	transportFactory TransportFactory,
	serializer serializer.IRPCSerializer,
	config common.ClientConfig,
) backend.IDialer {
	if transportFactory == nil {
		transportFactory = AutoTransport
	}
	return &dialer{
		shardId:          shardId,
		transportFactory: transportFactory,
		serializer:       serializer,
		config:           config,
	}
}

type dialer struct {
	shardId          uint64
	transportFactory TransportFactory
	serializer       serializer.IRPCSerializer
	config           common.ClientConfig
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.IDialer)
// --------------------------------------------------------------------------

func (d *dialer) DialNode(addr string, timeout time.Duration) (backend.IBackend, error) {
	config := d.config
	config.Endpoints = []string{addr}
	config.Timeout = timeout

	b, err := NewRPCBackend(d.shardId, config, d.transportFactory(addr), d.serializer)
	if err != nil {
		return nil, err
	}

	Logger.Debugf("Connected to shard %d on %s (%s serializer)", d.shardId, addr, d.serializer.GetName())
	return b, nil
}

func (d *dialer) DialCluster(addrs []string, timeout time.Duration) (backend.IBackend, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no cluster addresses given")
	}

	nodes := make(map[string]backend.IBackend, len(addrs))
	for _, addr := range addrs {
		node, err := d.DialNode(addr, timeout)
		if err != nil {
			// no partial clusters
			closeErrs := make([]error, 0, len(nodes))
			for _, n := range nodes {
				closeErrs = append(closeErrs, n.Close())
			}
			if closeErr := errors.Join(closeErrs...); closeErr != nil {
				Logger.Warningf("Closing partially connected cluster failed: %v", closeErr)
			}
			return nil, fmt.Errorf("cluster node %s: %w", addr, err)
		}
		nodes[addr] = node
	}

	sharded, err := backend.NewSharded(nodes, backend.DefaultVirtualNodes)
	if err != nil {
		return nil, err
	}
	return sharded, nil
}

func (d *dialer) GetName() string {
	return "dkv"
}
