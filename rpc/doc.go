// Package rpc provides remote access to settings backends. A settings server
// hosts one backend per shard (namespace); clients use a remote backend that
// forwards whole-namespace reads and writes to it, so any SettingStore can
// keep its data on another machine.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with an HTTP implementation.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: the remote backend.Backend implementation.
//
//   - server: RPC server components that create the shard backends and
//     answer read, write and info requests against them.
package rpc
