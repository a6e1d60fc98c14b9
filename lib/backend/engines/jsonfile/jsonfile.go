package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/dotpath"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

var log = logger.GetLogger("backend/json")

const features = backend.FeatureRead | backend.FeatureWrite | backend.FeaturePersist

// Backend stores a namespace as one JSON document. The document is the nested
// tree, not the dotted keys.
type Backend struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex // serializes writers of this instance
}

// New creates a backend for the file at path on fsys.
func New(fsys afero.Fs, path string) *Backend {
	return &Backend{
		fs:   fsys,
		path: filepath.Clean(path),
	}
}

// NewOS creates a backend for a file on the local disk.
func NewOS(path string) *Backend {
	return New(afero.NewOsFs(), path)
}

// Path returns the file the backend reads and writes.
func (b *Backend) Path() string {
	return b.path
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend/backend.go)
// --------------------------------------------------------------------------

// Read decodes the file. A missing or empty file is an empty namespace.
// Numbers keep their integer form when they have one.
func (b *Backend) Read(ctx context.Context) (backend.Flat, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.StorageError(backend.ImplJSON, "read", err)
	}

	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return backend.Flat{}, nil
	}
	if err != nil {
		return nil, backend.StorageError(backend.ImplJSON, "read", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return backend.Flat{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, backend.MalformedError(backend.ImplJSON, "read", "%s: %v", b.path, err)
	}
	if root == nil {
		return backend.Flat{}, nil
	}
	tree, ok := root.(map[string]any)
	if !ok {
		return nil, backend.MalformedError(backend.ImplJSON, "read", "%s: top level value is %T, not an object", b.path, root)
	}
	return dotpath.Flatten(decodeNumbers(tree).(map[string]any)), nil
}

// Write replaces the file with the tree described by target. The new content
// is written to a temporary file in the same directory and renamed over the
// old one, so readers see either the old or the new document.
func (b *Backend) Write(ctx context.Context, target backend.Flat) error {
	if err := ctx.Err(); err != nil {
		return backend.StorageError(backend.ImplJSON, "write", err)
	}

	data, err := json.MarshalIndent(dotpath.Unflatten(target), "", "    ")
	if err != nil {
		return backend.MalformedError(backend.ImplJSON, "write", "encoding settings: %v", err)
	}
	data = append(data, '\n')

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.replace(data); err != nil {
		log.Errorf("writing %s failed: %v", b.path, err)
		return backend.StorageError(backend.ImplJSON, "write", err)
	}
	log.Debugf("wrote %d keys to %s", len(target), b.path)
	return nil
}

func (b *Backend) replace(data []byte) (err error) {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(b.fs, dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = b.fs.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = b.fs.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return b.fs.Rename(tmp.Name(), b.path)
}

func (b *Backend) SupportsFeature(feature backend.Feature) bool {
	return features&feature == feature
}

func (b *Backend) Info() backend.Info {
	return backend.Info{
		Driver:            backend.ImplJSON,
		SupportedFeatures: backend.Features(features),
		Metadata:          map[string]string{"path": b.path},
	}
}

func (b *Backend) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// decodeNumbers replaces every json.Number with an int64 when it is an
// integer and a float64 otherwise.
func decodeNumbers(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, e := range n {
			n[k] = decodeNumbers(e)
		}
		return n
	case []any:
		for i, e := range n {
			n[i] = decodeNumbers(e)
		}
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		return v
	}
}
