package jsonfile

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	backendtesting "github.com/ValentinKolb/dotset/lib/backend/testing"
	"github.com/ValentinKolb/dotset/lib/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonBackendMemFs(t *testing.T) {
	backendtesting.RunBackendTests(t, "JsonBackend/MemMapFs", func(t *testing.T) backendtesting.Opener {
		fsys := afero.NewMemMapFs()
		return func() backend.Backend { return New(fsys, "/etc/app/settings.json") }
	})
}

func TestJsonBackendDisk(t *testing.T) {
	backendtesting.RunBackendTests(t, "JsonBackend/Disk", func(t *testing.T) backendtesting.Opener {
		path := filepath.Join(t.TempDir(), "nested", "settings.json")
		return func() backend.Backend { return NewOS(path) }
	})
}

func BenchmarkJsonBackend(b *testing.B) {
	backendtesting.RunBackendBenchmarks(b, "JsonBackend", func(b *testing.B) backendtesting.Opener {
		path := filepath.Join(b.TempDir(), "settings.json")
		return func() backend.Backend { return NewOS(path) }
	})
}

func TestReadMissingAndEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := New(fsys, "/settings.json")

	flat, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flat)

	require.NoError(t, afero.WriteFile(fsys, "/settings.json", []byte("  \n"), 0o644))
	flat, err = b.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flat)

	require.NoError(t, afero.WriteFile(fsys, "/settings.json", []byte("null"), 0o644))
	flat, err = b.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flat)
}

func TestReadKeepsNumberTypes(t *testing.T) {
	fsys := afero.NewMemMapFs()
	doc := `{"mail": {"port": 587, "ratio": 0.5, "tls": true}, "hosts": ["a", "b"], "empty": null}`
	require.NoError(t, afero.WriteFile(fsys, "/s.json", []byte(doc), 0o644))

	flat, err := New(fsys, "/s.json").Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, backend.Flat{
		"mail.port":  int64(587),
		"mail.ratio": 0.5,
		"mail.tls":   true,
		"hosts.0":    "a",
		"hosts.1":    "b",
		"empty":      nil,
	}, flat)
}

func TestReadMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"InvalidJSON": `{"a": `,
		"ArrayRoot":   `[1, 2, 3]`,
		"ScalarRoot":  `"text"`,
	} {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, "/s.json", []byte(doc), 0o644))

			_, err := New(fsys, "/s.json").Read(context.Background())
			assert.ErrorIs(t, err, backend.ErrMalformedRecord)
		})
	}
}

func TestWriteProducesNestedDocument(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := New(fsys, "/conf/settings.json")

	require.NoError(t, b.Write(context.Background(), backend.Flat{
		"mail.driver": "smtp",
		"hosts.0":     "a",
		"hosts.1":     "b",
	}))

	data, err := afero.ReadFile(fsys, "/conf/settings.json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{
		"mail":  map[string]any{"driver": "smtp"},
		"hosts": []any{"a", "b"},
	}, doc)

	// no temporary files are left behind
	entries, err := afero.ReadDir(fsys, "/conf")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFailureIsStorageError(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := New(fsys, "/settings.json").Write(context.Background(), backend.Flat{"a": 1})
	assert.ErrorIs(t, err, backend.ErrStorageAccess)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(afero.NewMemMapFs(), "/s.json")
	_, err := b.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.Write(ctx, backend.Flat{}), backend.ErrStorageAccess)
}

func TestStoreOnJsonFile(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()

	s := store.New(New(fsys, "/settings.json"))
	require.NoError(t, s.Set(ctx, "features.beta.enabled", true))
	require.NoError(t, s.Set(ctx, "limits.requests", 100))
	require.NoError(t, s.Save(ctx))

	reloaded := store.New(New(fsys, "/settings.json"))
	v, err := reloaded.Get(ctx, "features.beta.enabled", false)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = reloaded.Get(ctx, "limits.requests", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)
}
