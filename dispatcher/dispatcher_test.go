package dispatcher

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rpcpool/inferencestore/cachestore"
	"github.com/rpcpool/inferencestore/matchpolicy"
	"github.com/rpcpool/inferencestore/rpcproto"
)

// fakeCounters records Observe calls alongside the existing hit/miss/insert/
// error hooks, letting tests assert the latency histogram hook fires without
// depending on the real Prometheus metrics package.
type fakeCounters struct {
	mu       sync.Mutex
	observed []string
}

func (f *fakeCounters) Hit(string, string)            {}
func (f *fakeCounters) Miss(string, string)           {}
func (f *fakeCounters) Insert(string, string)         {}
func (f *fakeCounters) Error(string, string, string)  {}
func (f *fakeCounters) Observe(rpcMethod string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, rpcMethod)
}

type fakeUpstream struct {
	inferResp *rpcproto.ModelInferResponse
	inferErr  error
	calls     int
}

func (f *fakeUpstream) ModelInfer(ctx context.Context, in *rpcproto.ModelInferRequest) (*rpcproto.ModelInferResponse, error) {
	f.calls++
	if f.inferErr != nil {
		return nil, f.inferErr
	}
	return f.inferResp, nil
}

func (f *fakeUpstream) ModelConfig(ctx context.Context, in *rpcproto.ModelConfigRequest) (*rpcproto.ModelConfigResponse, error) {
	return &rpcproto.ModelConfigResponse{Config: []byte(`{}`)}, nil
}

func newDispatcher(t *testing.T, mode Mode, up Upstream) *Dispatcher {
	t.Helper()
	infer, err := cachestore.OpenInferStore(t.TempDir())
	require.NoError(t, err)
	cfg, err := cachestore.OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	return &Dispatcher{Mode: mode, Infer: infer, Configs: cfg, Upstream: up}
}

func sampleRequest() *rpcproto.ModelInferRequest {
	return &rpcproto.ModelInferRequest{
		ModelName:    "m",
		ModelVersion: "1",
		Id:           "r1",
		Inputs: []*rpcproto.InferInputTensor{
			{Name: "x", Datatype: "FP32", Shape: []int64{1}},
		},
		RawInputContents: [][]byte{{1}},
	}
}

// TestCollectModeForwardsOnMissAndPersists is P4/P5: a miss in collect
// mode is forwarded and the response becomes available on a later lookup.
func TestCollectModeForwardsOnMissAndPersists(t *testing.T) {
	up := &fakeUpstream{inferResp: &rpcproto.ModelInferResponse{
		ModelName: "m",
		Outputs:   []*rpcproto.InferOutputTensor{{Name: "o", Datatype: "FP32"}},
	}}
	d := newDispatcher(t, ModeCollect, up)
	req := sampleRequest()

	resp, err := d.ModelInfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls)
	require.Len(t, resp.Outputs, 1)

	resp2, err := d.ModelInfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls, "second call must be served from cache, not upstream")
	assert.Equal(t, resp.Outputs[0].Name, resp2.Outputs[0].Name)
}

// TestServeModeRejectsMiss is P4: serve mode never calls upstream.
func TestServeModeRejectsMiss(t *testing.T) {
	up := &fakeUpstream{}
	d := newDispatcher(t, ModeServe, up)

	_, err := d.ModelInfer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, 0, up.calls)
}

func TestCollectModeTranslatesUpstreamError(t *testing.T) {
	up := &fakeUpstream{inferErr: status.Error(codes.InvalidArgument, "bad shape")}
	d := newDispatcher(t, ModeCollect, up)

	_, err := d.ModelInfer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestModelInferAssignsRequestIDWhenMissing(t *testing.T) {
	up := &fakeUpstream{inferResp: &rpcproto.ModelInferResponse{ModelName: "m"}}
	d := newDispatcher(t, ModeCollect, up)
	req := sampleRequest()
	req.Id = ""

	_, err := d.ModelInfer(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, req.Id)
}

func TestServeModeUsesMatchPolicy(t *testing.T) {
	up := &fakeUpstream{inferResp: &rpcproto.ModelInferResponse{ModelName: "m"}}
	d := newDispatcher(t, ModeCollect, up)
	req := sampleRequest()
	_, err := d.ModelInfer(context.Background(), req)
	require.NoError(t, err)

	d.Mode = ModeServe
	d.Policy = matchpolicy.Policy{MatchID: true}
	req2 := sampleRequest()
	req2.Id = "different"
	_, err = d.ModelInfer(context.Background(), req2)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

// fakeStream is a minimal streamConn for exercising ModelStreamInfer
// without a real gRPC transport.
type fakeStream struct {
	ctx  context.Context
	reqs []*rpcproto.ModelInferRequest
	idx  int

	mu   sync.Mutex
	sent []*rpcproto.ModelInferResponse
}

func newFakeStream(ctx context.Context, reqs []*rpcproto.ModelInferRequest) *fakeStream {
	return &fakeStream{ctx: ctx, reqs: reqs}
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func (f *fakeStream) Recv() (*rpcproto.ModelInferRequest, error) {
	if f.idx >= len(f.reqs) {
		return nil, io.EOF
	}
	r := f.reqs[f.idx]
	f.idx++
	return r, nil
}

func (f *fakeStream) Send(resp *rpcproto.ModelInferResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, resp)
	return nil
}

func TestModelStreamInferAnswersEveryMessageInCollectMode(t *testing.T) {
	up := &fakeUpstream{inferResp: &rpcproto.ModelInferResponse{ModelName: "m"}}
	d := newDispatcher(t, ModeCollect, up)

	reqs := []*rpcproto.ModelInferRequest{sampleRequest(), sampleRequest(), sampleRequest()}
	stream := newFakeStream(context.Background(), reqs)

	err := d.ModelStreamInfer(stream)
	require.NoError(t, err)
	assert.Len(t, stream.sent, 3)
}

func TestModelStreamInferStopsOnFirstErrorWithoutDraining(t *testing.T) {
	d := newDispatcher(t, ModeServe, &fakeUpstream{})
	reqs := []*rpcproto.ModelInferRequest{sampleRequest(), sampleRequest()}
	stream := newFakeStream(context.Background(), reqs)

	err := d.ModelStreamInfer(stream)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, 1, stream.idx, "the second message must not be read after the first fails")
}

// TestModelStreamInferProcessesSequentially asserts the single-worker model:
// messages are dispatched to upstream strictly one at a time, never
// concurrently (spec.md §5). MatchID plus the per-message generated ids
// makes every message a cache miss, so each one reaches upstream.
func TestModelStreamInferProcessesSequentially(t *testing.T) {
	up := &orderTrackingUpstream{}
	d := newDispatcher(t, ModeCollect, up)
	d.Policy = matchpolicy.Policy{MatchID: true}

	reqs := make([]*rpcproto.ModelInferRequest, 5)
	for i := range reqs {
		req := sampleRequest()
		req.Id = ""
		reqs[i] = req
	}
	stream := newFakeStream(context.Background(), reqs)

	err := d.ModelStreamInfer(stream)
	require.NoError(t, err)
	assert.Equal(t, int32(1), up.maxConcurrent)
	assert.Len(t, stream.sent, 5)
}

// orderTrackingUpstream records the peak number of concurrent ModelInfer
// calls in maxConcurrent, so a test can assert ModelStreamInfer never runs
// a bounded worker pool over distinct inbound messages.
type orderTrackingUpstream struct {
	mu            sync.Mutex
	inFlight      int32
	maxConcurrent int32
}

func (u *orderTrackingUpstream) ModelInfer(ctx context.Context, in *rpcproto.ModelInferRequest) (*rpcproto.ModelInferResponse, error) {
	u.mu.Lock()
	u.inFlight++
	if u.inFlight > u.maxConcurrent {
		u.maxConcurrent = u.inFlight
	}
	u.mu.Unlock()

	time.Sleep(time.Millisecond)

	u.mu.Lock()
	u.inFlight--
	u.mu.Unlock()
	return &rpcproto.ModelInferResponse{ModelName: in.ModelName}, nil
}

func (u *orderTrackingUpstream) ModelConfig(ctx context.Context, in *rpcproto.ModelConfigRequest) (*rpcproto.ModelConfigResponse, error) {
	return &rpcproto.ModelConfigResponse{Config: []byte(`{}`)}, nil
}

// openBrokenInferStore opens a real InferStore and then removes its
// backing directory out from under it, so Insert fails with something
// other than fs.ErrExist (the only error Insert is allowed to swallow).
func openBrokenInferStore(t *testing.T) *cachestore.InferStore {
	t.Helper()
	dir := t.TempDir()
	s, err := cachestore.OpenInferStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))
	return s
}

// TestDispatchInferSurfacesPersistenceErrors is finding (a): an Insert
// failure must come back as codes.Unknown, not be swallowed as success.
func TestDispatchInferSurfacesPersistenceErrors(t *testing.T) {
	up := &fakeUpstream{inferResp: &rpcproto.ModelInferResponse{ModelName: "m"}}
	cfgStore, err := cachestore.OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	counters := &fakeCounters{}
	d := &Dispatcher{
		Mode:     ModeCollect,
		Infer:    openBrokenInferStore(t),
		Configs:  cfgStore,
		Upstream: up,
		Counters: counters,
	}

	_, err = d.ModelInfer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, codes.Unknown, status.Code(err))
}

// TestModelConfigSurfacesPersistenceErrors mirrors the above for ModelConfig.
func TestModelConfigSurfacesPersistenceErrors(t *testing.T) {
	inferStore, err := cachestore.OpenInferStore(t.TempDir())
	require.NoError(t, err)
	configDir := t.TempDir()
	configs, err := cachestore.OpenConfigStore(configDir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(configDir))

	d := &Dispatcher{
		Mode:     ModeCollect,
		Infer:    inferStore,
		Configs:  configs,
		Upstream: &fakeUpstream{},
	}

	_, err = d.ModelConfig(context.Background(), &rpcproto.ModelConfigRequest{Name: "m", Version: "1"})
	require.Error(t, err)
	assert.Equal(t, codes.Unknown, status.Code(err))
}

// TestDispatchInferObservesLatency is finding (e): every ModelInfer call
// (hit or miss) records a latency observation.
func TestDispatchInferObservesLatency(t *testing.T) {
	up := &fakeUpstream{inferResp: &rpcproto.ModelInferResponse{ModelName: "m"}}
	d := newDispatcher(t, ModeCollect, up)
	counters := &fakeCounters{}
	d.Counters = counters

	_, err := d.ModelInfer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"ModelInfer"}, counters.observed)

	_, err = d.ModelInfer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"ModelInfer", "ModelInfer"}, counters.observed)
}
