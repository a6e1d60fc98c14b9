package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(ctx context.Context, shardId uint64, req []byte) []byte) *httptest.Server {
	t.Helper()
	server := NewHttpServerTransport().(*httpServerTransport)
	server.RegisterHandler(handler)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, retries int, endpoints ...string) *httpClientTransport {
	t.Helper()
	client := NewHttpClientTransport().(*httpClientTransport)
	require.NoError(t, client.Connect(common.ClientConfig{
		Endpoints:     endpoints,
		TimeoutSecond: 5,
		RetryCount:    retries,
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRoundTrip(t *testing.T) {
	ts := newTestServer(t, func(_ context.Context, shardId uint64, req []byte) []byte {
		return append([]byte{byte(shardId)}, req...)
	})
	client := newTestClient(t, 1, ts.URL)

	resp, err := client.Send(context.Background(), 7, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, append([]byte{7}, "ping"...), resp)
}

func TestEndpointWithoutScheme(t *testing.T) {
	ts := newTestServer(t, func(_ context.Context, _ uint64, req []byte) []byte { return req })
	client := newTestClient(t, 1, ts.Listener.Addr().String())

	resp, err := client.Send(context.Background(), 1, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), resp)
}

func TestInvalidShardId(t *testing.T) {
	ts := newTestServer(t, func(_ context.Context, _ uint64, req []byte) []byte { return req })

	resp, err := http.Post(ts.URL+"/not-a-number", "application/octet-stream", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, func(_ context.Context, _ uint64, req []byte) []byte { return req })

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRetryResendsBody(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)
	client := newTestClient(t, 3, ts.URL)

	resp, err := client.Send(context.Background(), 1, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), resp)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	t.Cleanup(ts.Close)
	client := newTestClient(t, 5, ts.URL)

	_, err := client.Send(context.Background(), 1, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendHonorsContext(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })
	client := newTestClient(t, 3, ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Send(ctx, 1, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendWithoutConnect(t *testing.T) {
	client := NewHttpClientTransport()
	_, err := client.Send(context.Background(), 1, nil)
	assert.Error(t, err)
	assert.Error(t, client.Connect(common.ClientConfig{}))
}

func TestShutdownWithoutListen(t *testing.T) {
	assert.NoError(t, NewHttpServerTransport().Shutdown(context.Background()))
}
