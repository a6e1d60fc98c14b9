package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/ValentinKolb/dotset/rpc/serializer"
	"github.com/ValentinKolb/dotset/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the backend it encapsulates and the adapter
// that handles requests for the backend
type serverShard struct {
	Backend backend.Backend
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport, serializer and a factory for the shard backends as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//		func(shard common.ServerShard) (backend.Backend, error) { return memory.New(), nil },
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	factory ShardFactory,
) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		factory:    factory,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	factory    ShardFactory
	shards     *xsync.MapOf[uint64, serverShard]
}

// handle decodes a request, passes it to the shard's adapter and encodes the response
func (s *rpcServer) handle(ctx context.Context, shardId uint64, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	// Get appropriate shard
	shard, ok := s.shards.Load(shardId)

	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		if s.config.TimeoutSecond > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(s.config.TimeoutSecond)*time.Second)
			defer cancel()
		}
		respMsg = shard.Adapter.Handle(ctx, &msg, shard.Backend)
	}

	metrics.GetOrCreateCounter(fmt.Sprintf(`dotset_rpc_requests_total{type=%q}`, msg.MsgType)).Inc()
	if respMsg.Err != "" {
		metrics.GetOrCreateCounter(fmt.Sprintf(`dotset_rpc_failures_total{type=%q}`, msg.MsgType)).Inc()
		Logger.Warningf("request %s on shard %d failed: %s", msg.MsgType, shardId, respMsg.Err)
	}

	// Return result
	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// Init creates the backend of every configured shard and registers the
// request handler with the transport. Serve calls it, it is exported for
// callers that drive the handler without listening.
func (s *rpcServer) Init() error {
	if s.factory == nil {
		return fmt.Errorf("no shard factory configured")
	}

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("shard %d configured twice", shardConfig.ShardID)
		}
		b, err := s.factory(shardConfig)
		if err != nil {
			return fmt.Errorf("failed to create backend for shard %d: %w", shardConfig.ShardID, err)
		}
		s.shards.Store(shardConfig.ShardID, serverShard{
			Backend: b,
			Adapter: NewBackendServerAdapter(),
		})
		Logger.Infof("created %s backend for shard %d", b.Info().Driver, shardConfig.ShardID)
	}

	Logger.Infof("dotset setup completed successfully")

	// Configure the transport layer
	s.transport.RegisterHandler(s.handle)

	return nil
}

// Serve starts the RPC server
// This function will also initialize the shards and start the transport layer
func (s *rpcServer) Serve() error {
	if err := s.Init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and closes the backends of all shards
func (s *rpcServer) Close(ctx context.Context) error {
	var errs []error
	if err := s.transport.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.shards.Range(func(id uint64, shard serverShard) bool {
		if err := shard.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing shard %d: %w", id, err))
		}
		s.shards.Delete(id)
		return true
	})
	return errors.Join(errs...)
}
