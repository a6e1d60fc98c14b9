// Package server implements the settings RPC server. It owns one backend per
// configured shard and answers read, write and info requests against it.
//
// The package focuses on:
//   - Server-side RPC request handling for backend operations
//   - Adapter pattern to decouple backend logic from RPC mechanisms
//   - Creating shard backends through an injected ShardFactory
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a backend.Backend.
//
//   - NewBackendServerAdapter: Factory function creating the adapter that maps
//     read, write and info messages to the Read, Write and Info methods of a backend.
//     Backend errors travel back with their return code.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport, serializer and shard factory.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 1, Driver: backend.ImplJSON},
//	    {ShardID: 2, Driver: backend.ImplDatabase},
//	  },
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  http.NewHttpServerTransport(),
//	  serializer.NewBinarySerializer(),
//	  func(shard common.ServerShard) (backend.Backend, error) {
//	    return mgr.ShardBackend(ctx, shard.Driver, shard.ShardID)
//	  },
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Every request runs with the request context of the transport, bounded by
// TimeoutSecond when it is set. Requests for unknown shards are answered with
// an error message carrying RetCUnsupportedOperation.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests.
//	Each request is processed independently; serialization of writes to the
//	same shard is left to the shard backend. Serve should be called only once.
package server
