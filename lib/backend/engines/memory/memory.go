// Package memory provides a backend that never persists anything.
// Read always returns an empty namespace and Write discards its input, so a
// store on top of it behaves like a plain in-process map that is gone after
// Fresh. It serves test doubles and ephemeral namespaces ("memory" and
// "array" drivers).
package memory

import (
	"context"

	"github.com/ValentinKolb/dotset/lib/backend"
)

const features = backend.FeatureRead | backend.FeatureWrite

type memoryBackend struct{}

// New creates a memory backend.
func New() backend.Backend {
	return memoryBackend{}
}

func (memoryBackend) Read(context.Context) (backend.Flat, error) {
	return backend.Flat{}, nil
}

func (memoryBackend) Write(context.Context, backend.Flat) error {
	return nil
}

func (memoryBackend) SupportsFeature(feature backend.Feature) bool {
	return features&feature == feature
}

func (memoryBackend) Info() backend.Info {
	return backend.Info{
		Driver:            backend.ImplMemory,
		SupportedFeatures: backend.Features(features),
	}
}

func (memoryBackend) Close() error {
	return nil
}
