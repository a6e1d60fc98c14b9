package server

import (
	"context"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and the backend of the addressed shard as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(ctx context.Context, req *common.Message, b backend.Backend) (resp *common.Message)
}

// ShardFactory creates the backend that holds a shard. It is called once per
// configured shard when the server starts.
type ShardFactory func(shard common.ServerShard) (backend.Backend, error)
