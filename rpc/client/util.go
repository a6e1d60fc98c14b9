package client

import (
	"context"
	"time"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/ValentinKolb/dotset/rpc/serializer"
	"github.com/ValentinKolb/dotset/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCBackend with composition pattern
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type
func invokeRPCRequest(ctx context.Context, shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	op := req.MsgType.String()

	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, backend.MalformedError(backend.ImplRemote, op, "serializing request: %v", err)
	}

	// Send the request
	respBytes, err := transport.Send(ctx, shardId, reqBytes)
	if err != nil {
		Logger.Warningf("sending %s request to shard %d failed: %v", op, shardId, err)
		return nil, backend.StorageError(backend.ImplRemote, op, err)
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, backend.MalformedError(backend.ImplRemote, op, "deserializing response: %v", err)
	}

	// Check if the response is an error response
	if err := resp.Failure(); err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, backend.MalformedError(backend.ImplRemote, op,
			"unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}

// timeout returns the configured request timeout
func timeout(config common.ClientConfig) time.Duration {
	return time.Duration(config.TimeoutSecond) * time.Second
}
