package server

import (
	"fmt"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/rpc/common"
)

func NewBackendServerAdapter() IRPCServerAdapter {
	return &backendServerAdapterImpl{}
}

type backendServerAdapterImpl struct{}

func (adapter *backendServerAdapterImpl) Handle(req *common.Message, store backend.IBackend) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVSet:
		err := store.Set(req.Key, req.Value)
		return common.NewSetResponse(err)
	case common.MsgTKVGet:
		val, ok, err := store.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC BackendAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
