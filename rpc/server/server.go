package server

import (
	"errors"
	"fmt"
	"net"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/lib/backend/memory"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the backend it encapsulates and the adapter
// that handles requests for the backend
type serverShard struct {
	Store   backend.IBackend
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server (%s serializer)", serializer.GetName())
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// RPCServer serves a set of in-memory shards over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("shard %d not found", shardId),
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Store)
			}
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(
				fmt.Sprintf("failed to serialize response: %s", err),
			))
		}
		return val
	})
}

func (s *RPCServer) init() error {
	if len(s.config.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}

	for _, shardId := range s.config.Shards {
		if _, loaded := s.shards.LoadOrStore(shardId, serverShard{
			Store:   memory.NewStore(),
			Adapter: NewBackendServerAdapter(),
		}); loaded {
			return fmt.Errorf("shard %d configured twice", shardId)
		}
		Logger.Infof("created in-memory store for shard %d", shardId)
	}

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve initializes the shards and starts the transport layer.
// It blocks until Close is called.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Addr returns the address the server listens on, nil if it is not listening
func (s *RPCServer) Addr() net.Addr {
	return s.transport.Addr()
}

// Close stops the transport and closes all shard stores
func (s *RPCServer) Close() error {
	errs := []error{s.transport.Close()}
	s.shards.Range(func(id uint64, shard serverShard) bool {
		errs = append(errs, shard.Store.Close())
		s.shards.Delete(id)
		return true
	})
	return errors.Join(errs...)
}
