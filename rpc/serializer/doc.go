// Package serializer provides message serialization for the settings RPC layer.
// It defines a common interface and multiple implementations for serializing and
// deserializing messages between client and server components.
//
// A settings message is small: a type, the flattened entries of a namespace
// (values already JSON encoded by rpc/common), a status and optional backend
// info. All formats below carry exactly these fields; ByName picks one from
// the --serializer flag.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format implementation optimized for speed
//     and space efficiency. Uses a flag-based approach to encode only present fields.
//     Entries are written as a count followed by length prefixed key/value pairs
//     in sorted key order, so equal messages always produce equal bytes.
//
//   - gobSerializerImpl: encoding/gob, larger payloads since every message
//     carries its type description.
//
//   - jsonSerializerImpl: JSON objects with message types written by name,
//     handy when inspecting traffic with curl.
//
// Performance Characteristics (based on benchmarks across various message types):
//
//   - Binary: Delivers superior performance with the smallest payload size. Highly optimized
//     for the application's specific message structure and recommended for production use.
//
//   - JSON: Offers acceptable performance with moderate payload sizes. Provides human-readable
//     output beneficial for debugging and system integration scenarios.
//
//   - GOB: Performs significantly worse than other implementations with consistently larger
//     payload sizes. Not recommended for use in this system as it provides no advantages
//     over Binary or JSON serialization.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Serializers are typically created once and reused throughout the application:
//
//	  serializer := serializer.NewBinarySerializer()
//	  data, err := serializer.Serialize(message)
//	  // ... send data ...
//	  var receivedMsg common.Message
//	  err = serializer.Deserialize(receivedData, &receivedMsg)
package serializer
