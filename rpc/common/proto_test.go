package common

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadResponseCarriesEntries(t *testing.T) {
	msg := NewReadResponse(backend.Flat{"a.b": "x", "n": int64(3)}, nil)
	assert.True(t, msg.Ok)
	assert.NoError(t, msg.Failure())
	assert.Equal(t, map[string]string{"a.b": `"x"`, "n": `3`}, msg.Entries)

	flat, err := DecodeEntries(msg.Entries)
	require.NoError(t, err)
	assert.Equal(t, backend.Flat{"a.b": "x", "n": int64(3)}, flat)
}

func TestResponseKeepsErrorCode(t *testing.T) {
	cause := backend.MalformedError(backend.ImplJSON, "read", "root is not an object")
	msg := NewReadResponse(nil, cause)
	assert.False(t, msg.Ok)
	assert.Equal(t, uint64(backend.RetCMalformedRecord), msg.Code)

	err := msg.Failure()
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrMalformedRecord)

	var be *backend.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, backend.ImplRemote, be.Backend)
}

func TestPlainErrorsBecomeStorageErrors(t *testing.T) {
	msg := NewWriteResponse(errors.New("disk full"))
	assert.Equal(t, uint64(backend.RetCStorageAccess), msg.Code)
	assert.ErrorIs(t, msg.Failure(), backend.ErrStorageAccess)
	assert.Contains(t, msg.Failure().Error(), "disk full")
}

func TestErrorResponse(t *testing.T) {
	msg := NewErrorResponse("unknown shard 7")
	assert.Equal(t, MsgTError, msg.MsgType)
	assert.ErrorIs(t, msg.Failure(), backend.ErrUnsupported)
}

func TestInfoRoundTrip(t *testing.T) {
	info := backend.Info{
		Driver:            backend.ImplDatabase,
		SupportedFeatures: []backend.Feature{backend.FeatureRead, backend.FeatureScope},
		Metadata:          map[string]string{"table": "settings"},
	}
	msg := NewInfoResponse(info)
	require.True(t, msg.Ok)

	got, err := msg.Info()
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestDecodeEntriesRejectsGarbage(t *testing.T) {
	_, err := DecodeEntries(map[string]string{"a": "{not json"})
	assert.Error(t, err)
}

func TestMessageTypeJSON(t *testing.T) {
	for _, mt := range []MessageType{MsgTUnknown, MsgTSuccess, MsgTError, MsgTRead, MsgTWrite, MsgTInfo} {
		data, err := mt.MarshalJSON()
		require.NoError(t, err)
		var got MessageType
		require.NoError(t, got.UnmarshalJSON(data))
		assert.Equal(t, mt, got)
	}
	var mt MessageType
	assert.Error(t, mt.UnmarshalJSON([]byte(`"lock"`)))
}

func TestParseLogLevel(t *testing.T) {
	_, err := ParseLogLevel("debug")
	assert.NoError(t, err)
	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestServerConfigString(t *testing.T) {
	c := ServerConfig{
		Endpoint: ":8080",
		Shards:   []ServerShard{{ShardID: 1, Driver: backend.ImplMemory}},
	}
	assert.True(t, c.HasShard(1))
	assert.False(t, c.HasShard(2))
	assert.Contains(t, c.String(), "memory")
}

func TestClientConfigString(t *testing.T) {
	c := ClientConfig{Endpoints: []string{"a:1", "b:2"}}
	out := c.String()
	assert.Contains(t, out, "a:1, b:2")
	assert.Contains(t, out, "REMOTE BACKEND")
	assert.Regexp(t, `Retry Count\s+: 1`, out)
}
