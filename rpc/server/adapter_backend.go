package server

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
)

func NewBackendServerAdapter() IRPCServerAdapter {
	return &backendServerAdapterImpl{}
}

type backendServerAdapterImpl struct{}

func (adapter *backendServerAdapterImpl) Handle(ctx context.Context, req *common.Message, b backend.Backend) *common.Message {
	// Check for nil backend
	if b == nil {
		return common.NewErrorResponse("handler: backend is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTRead:
		if !b.SupportsFeature(backend.FeatureRead) {
			return common.NewReadResponse(nil, unsupported("read"))
		}
		flat, err := b.Read(ctx)
		return common.NewReadResponse(flat, err)
	case common.MsgTWrite:
		if !b.SupportsFeature(backend.FeatureWrite) {
			return common.NewWriteResponse(unsupported("write"))
		}
		target, err := common.DecodeEntries(req.Entries)
		if err != nil {
			return common.NewWriteResponse(backend.MalformedError(backend.ImplRemote, "write", "%v", err))
		}
		return common.NewWriteResponse(b.Write(ctx, target))
	case common.MsgTInfo:
		return common.NewInfoResponse(b.Info())
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC BackendAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

func unsupported(op string) error {
	return backend.NewError(backend.RetCUnsupportedOperation, backend.ImplRemote, op,
		fmt.Errorf("shard backend does not support %s", op))
}
