// Package transport defines the interfaces for RPC communication between
// settings clients and a settings server. It provides a common contract that
// all transport implementations must fulfill.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Supporting shard-based request routing
//   - Passing the caller's context through to the backend
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to appropriate handlers.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// The http subpackage is the implementation used by the serve command.
package transport
