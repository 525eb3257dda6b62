package client

import (
	"fmt"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter stores all data needed to talk to one shard over one transport
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends a request and returns the response. Error responses are returned as errors,
// a response of an unexpected type is reported as backend.ErrUnexpectedReply.
func (a *rpcClientAdapter) invoke(req *common.Message, expected common.MessageType) (*common.Message, error) {
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := a.transport.Send(a.shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("rpc %s: invalid response: %w", req.MsgType, err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, fmt.Errorf("rpc %s: server error: %s", req.MsgType, resp.Err)
	}

	if resp.MsgType != expected {
		return nil, fmt.Errorf("rpc %s: %w: got %s, expected %s", req.MsgType, backend.ErrUnexpectedReply, resp.MsgType, expected)
	}

	return resp, nil
}
