// Package http implements an HTTP-based transport layer for settings RPC
// communication. It provides concrete implementations of the transport
// interfaces defined in the parent package.
//
// The package focuses on:
//   - Client-side HTTP transport for sending RPC requests to servers
//   - Server-side HTTP transport for receiving and handling RPC requests
//   - Round-robin load balancing across multiple server endpoints
//   - Request routing based on shard IDs
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport. Requests go to the
//     endpoints in round-robin order. Network failures and 5xx responses are
//     retried up to RetryCount attempts with a short linear backoff; every
//     attempt is bound to the caller's context.
//
//   - httpServerTransport: Implements IRPCServerTransport. Serves
//     POST /{shardId} for rpc requests and GET /metrics with the process
//     metrics in prometheus text format.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. It uses
//	atomic operations for the round-robin counter to ensure thread safety when
//	selecting server endpoints.
package http
