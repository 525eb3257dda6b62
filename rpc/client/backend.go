package client

import (
	"sync/atomic"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/transport"
)

// NewRPCBackend connects the transport and returns a backend that forwards all operations
// to the given shard of the server(s) in the configuration.
func NewRPCBackend(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (backend.IBackend, error) {

	if err := transport.Connect(config); err != nil {
		_ = transport.Close()
		return nil, err
	}

	return &rpcBackend{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcBackend struct {
	rpcClientAdapter
	closed atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.IBackend)
// --------------------------------------------------------------------------

func (b *rpcBackend) Get(key string) ([]byte, bool, error) {
	if b.closed.Load() {
		return nil, false, backend.ErrClosed
	}

	resp, err := b.invoke(common.NewGetRequest(key), common.MsgTKVGet)
	if err != nil {
		return nil, false, err
	}
	if !resp.Ok {
		return nil, false, nil
	}
	return resp.Value, true, nil
}

func (b *rpcBackend) Set(key string, value []byte) error {
	if b.closed.Load() {
		return backend.ErrClosed
	}

	// anything but a success acknowledgement is a failed write
	_, err := b.invoke(common.NewSetRequest(key, value), common.MsgTSuccess)
	return err
}

func (b *rpcBackend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.transport.Close()
}
