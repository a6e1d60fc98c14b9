package client

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/ValentinKolb/dotset/rpc/serializer"
	"github.com/ValentinKolb/dotset/rpc/transport"
)

// NewRPCBackend creates a backend that keeps its namespace on a settings server
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It connects the transport and returns a backend.Backend and an error
func NewRPCBackend(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (backend.Backend, error) {

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcBackend{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcBackend struct {
	rpcClientAdapter

	// server side info, cached after the first successful fetch
	infoMu sync.Mutex
	info   *backend.Info
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend/backend.go)
// --------------------------------------------------------------------------

func (r *rpcBackend) Read(ctx context.Context) (backend.Flat, error) {
	resp, err := invokeRPCRequest(ctx, r.shardId, common.NewReadRequest(), r.transport, r.serializer)
	if err != nil {
		return nil, err
	}
	flat, err := common.DecodeEntries(resp.Entries)
	if err != nil {
		return nil, backend.MalformedError(backend.ImplRemote, "read", "%v", err)
	}
	return flat, nil
}

func (r *rpcBackend) Write(ctx context.Context, target backend.Flat) error {
	req, err := common.NewWriteRequest(target)
	if err != nil {
		return backend.MalformedError(backend.ImplRemote, "write", "%v", err)
	}
	_, err = invokeRPCRequest(ctx, r.shardId, req, r.transport, r.serializer)
	return err
}

// SupportsFeature reports the features of the server side backend. Diffing
// and scoping happen on the server; if the server cannot be reached only
// read and write are reported.
func (r *rpcBackend) SupportsFeature(feature backend.Feature) bool {
	info, err := r.remoteInfo()
	if err != nil {
		return (backend.FeatureRead|backend.FeatureWrite)&feature == feature
	}
	for _, f := range info.SupportedFeatures {
		feature &^= f
	}
	return feature == 0
}

func (r *rpcBackend) Info() backend.Info {
	info := backend.Info{
		Driver:            backend.ImplRemote,
		SupportedFeatures: backend.Features(backend.FeatureRead | backend.FeatureWrite),
		Metadata: map[string]string{
			"shard":     strconv.FormatUint(r.shardId, 10),
			"endpoints": strings.Join(r.config.Endpoints, ","),
		},
	}
	remote, err := r.remoteInfo()
	if err != nil {
		info.Metadata["error"] = err.Error()
		return info
	}
	info.SupportedFeatures = remote.SupportedFeatures
	info.Metadata["remote_driver"] = string(remote.Driver)
	for k, v := range remote.Metadata {
		info.Metadata["remote_"+k] = v
	}
	return info
}

func (r *rpcBackend) Close() error {
	return r.transport.Close()
}

// remoteInfo asks the server for the backend info of the shard
func (r *rpcBackend) remoteInfo() (backend.Info, error) {
	r.infoMu.Lock()
	defer r.infoMu.Unlock()

	if r.info != nil {
		return *r.info, nil
	}

	ctx := context.Background()
	if r.config.TimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout(r.config))
		defer cancel()
	}
	resp, err := invokeRPCRequest(ctx, r.shardId, common.NewInfoRequest(), r.transport, r.serializer)
	if err != nil {
		return backend.Info{}, err
	}
	info, err := resp.Info()
	if err != nil {
		return backend.Info{}, err
	}
	r.info = &info
	return info, nil
}
