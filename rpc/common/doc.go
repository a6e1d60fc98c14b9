// Package common provides core data structures and utilities shared across
// the settings RPC layer. It defines the message protocol, configuration
// structures and the logger used by the other rpc packages.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. A namespace
//     travels as Entries, a map from dotted key to the JSON encoding of its
//     scalar value, so strings, numbers, booleans and nulls keep their type.
//     Failed responses carry the backend.RetCode of the error in Code.
//
//   - MessageType: Enumeration of the supported operations (read, write, info)
//     and the generic success and error replies.
//
//   - ServerConfig: Configuration for the server, listing the shards it serves
//     and the backend driver behind each of them.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logger factory for Dragonboat's logger package providing
//     consistent formatting across the application.
package common
