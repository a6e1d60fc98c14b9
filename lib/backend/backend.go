package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dotset/lib/dotpath"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Flat maps dotted keys to scalar values. It is the only shape that crosses
// the persistence boundary.
type Flat = dotpath.Flat

// Implementation identifies a backend driver.
type Implementation string

const (
	ImplMemory   Implementation = "memory"
	ImplJSON     Implementation = "json"
	ImplDatabase Implementation = "database"
	ImplRedis    Implementation = "redis"
	ImplRemote   Implementation = "remote"
)

// ParseImplementation maps a configured driver name to an Implementation.
// "array" is accepted as an alias of "memory".
func ParseImplementation(name string) (Implementation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "memory", "array":
		return ImplMemory, nil
	case "json":
		return ImplJSON, nil
	case "database", "db":
		return ImplDatabase, nil
	case "redis":
		return ImplRedis, nil
	case "remote":
		return ImplRemote, nil
	default:
		return "", fmt.Errorf("unknown settings driver %q", name)
	}
}

// Feature represents backend capabilities as bit flags
type Feature uint64

const (
	FeatureRead    Feature = 1 << iota // Support for Read operations
	FeatureWrite                       // Support for Write operations
	FeatureDiff                        // Write only touches changed keys
	FeatureScope                       // Storage can be partitioned into scopes
	FeaturePersist                     // Data outlives the process
)

var allFeatures = []Feature{FeatureRead, FeatureWrite, FeatureDiff, FeatureScope, FeaturePersist}

func (f Feature) String() string {
	switch f {
	case FeatureRead:
		return "Read"
	case FeatureWrite:
		return "Write"
	case FeatureDiff:
		return "Diff"
	case FeatureScope:
		return "Scope"
	case FeaturePersist:
		return "Persist"
	default:
		return "Unknown"
	}
}

// Features splits a feature mask into its single flags.
func Features(mask Feature) []Feature {
	var out []Feature
	for _, f := range allFeatures {
		if mask&f == f {
			out = append(out, f)
		}
	}
	return out
}

// Info describes a backend instance.
type Info struct {
	Driver            Implementation    `json:"driver"`
	SupportedFeatures []Feature         `json:"supported_features"`
	Metadata          map[string]string `json:"metadata"`
}

// --------------------------------------------------------------------------
// Backend Interface
// --------------------------------------------------------------------------

// Backend persists the flat form of a settings namespace.
// Implementations read the complete key space at once and accept the complete
// desired end state on write; how much of the storage is touched to reach that
// state is up to the implementation (see FeatureDiff).
type Backend interface {

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Read returns every key currently persisted under the active scope.
	// A missing storage location is not an error and yields an empty map.
	Read(ctx context.Context) (flat Flat, err error)

	// Write makes target the persisted state. Keys that are persisted but not
	// in target are removed. Failures are reported as *Error.
	Write(ctx context.Context, target Flat) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the backend supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// Info returns information about the backend.
	Info() (info Info)

	// Close releases resources owned by the backend. Handles passed in by the
	// caller (database connections, redis clients) are not closed.
	Close() (err error)
}
