// Package client implements the RPC client of the settings server. It provides
// a backend.Backend that forwards every call to a shard on a remote server.
//
// The package focuses on:
//   - Transparent remote access to a settings namespace
//   - Integration with the transport and serialization layers
//   - Conversion of RPC failures into backend errors
//
// Key Components:
//
//   - NewRPCBackend: Factory function that creates a client implementing the
//     backend.Backend interface. Read and Write move the whole flat namespace;
//     diffing and scoping happen on the server. SupportsFeature and Info report
//     the features of the backend behind the shard.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoints:     []string{"http://localhost:8080"},
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	}
//
//	b, _ := client.NewRPCBackend(1, config, http.NewHttpClientTransport(), serializer.NewBinarySerializer())
//	s := store.New(b)
//	_ = s.Set(ctx, "mail.driver", "smtp")
//	_ = s.Save(ctx)
//
// Error Handling:
//
//	Transport failures are reported as backend.ErrStorageAccess, undecodable
//	responses as backend.ErrMalformedRecord. Errors raised by the server side
//	backend keep their return code.
//
// Thread Safety:
//
//	The remote backend is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
