// Package dispatcher implements the cache-aside decision logic in front of
// the KServe v2 inference RPCs: look up a request's fingerprint, serve a
// match from the store, and in Collect mode forward a miss upstream and
// persist the result (spec.md §4.5).
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"

	"github.com/rpcpool/inferencestore/cachestore"
	"github.com/rpcpool/inferencestore/entrycodec"
	"github.com/rpcpool/inferencestore/matchpolicy"
	"github.com/rpcpool/inferencestore/rpcproto"
)

// Mode selects whether a cache miss is forwarded upstream and recorded
// (Collect) or rejected outright (Serve), per spec.md §2.
type Mode int

const (
	ModeCollect Mode = iota
	ModeServe
)

func (m Mode) String() string {
	if m == ModeServe {
		return "serve"
	}
	return "collect"
}

// Upstream is the subset of an upstream KServe v2 client the dispatcher
// needs. *rpcproto.Client satisfies it; tests supply a fake.
type Upstream interface {
	ModelInfer(ctx context.Context, in *rpcproto.ModelInferRequest) (*rpcproto.ModelInferResponse, error)
	ModelConfig(ctx context.Context, in *rpcproto.ModelConfigRequest) (*rpcproto.ModelConfigResponse, error)
}

// Counters are the cache-event hooks the dispatcher fires; a nil Counters
// field in Dispatcher is fine, every call is guarded.
type Counters interface {
	Hit(modelName, modelVersion string)
	Miss(modelName, modelVersion string)
	Insert(modelName, modelVersion string)
	Error(modelName, modelVersion, stage string)
	Observe(rpcMethod string, elapsed time.Duration)
}

// streamSendBuffer is the capacity of the response channel a stream's
// sequential worker pushes into for the actual network send (spec.md §5:
// "The mpsc channel from the stream worker has capacity 4 and applies
// backpressure."). Unlike the pool it replaced, this is not a concurrency
// limiter over request processing - exactly one worker goroutine ever
// reads from the input stream and calls upstream.
const streamSendBuffer = 4

// Dispatcher wires a mode, a match policy, the on-disk stores, and an
// optional upstream together into the request-handling logic the service
// layer calls into.
type Dispatcher struct {
	Mode     Mode
	Policy   matchpolicy.Policy
	Infer    *cachestore.InferStore
	Configs  *cachestore.ConfigStore
	Upstream Upstream
	Counters Counters
}

func (d *Dispatcher) hit(modelName, modelVersion string) {
	if d.Counters != nil {
		d.Counters.Hit(modelName, modelVersion)
	}
}
func (d *Dispatcher) miss(modelName, modelVersion string) {
	if d.Counters != nil {
		d.Counters.Miss(modelName, modelVersion)
	}
}
func (d *Dispatcher) inserted(modelName, modelVersion string) {
	if d.Counters != nil {
		d.Counters.Insert(modelName, modelVersion)
	}
}
func (d *Dispatcher) errored(modelName, modelVersion, stage string) {
	if d.Counters != nil {
		d.Counters.Error(modelName, modelVersion, stage)
	}
}
func (d *Dispatcher) observe(rpcMethod string, elapsed time.Duration) {
	if d.Counters != nil {
		d.Counters.Observe(rpcMethod, elapsed)
	}
}

// ModelInfer implements the unary ModelInfer RPC's cache-aside logic.
func (d *Dispatcher) ModelInfer(ctx context.Context, req *rpcproto.ModelInferRequest) (*rpcproto.ModelInferResponse, error) {
	return d.dispatchInfer(ctx, req)
}

func (d *Dispatcher) dispatchInfer(ctx context.Context, req *rpcproto.ModelInferRequest) (*rpcproto.ModelInferResponse, error) {
	start := time.Now()
	if req.Id == "" {
		// Callers are allowed to omit the request id; assign one so that
		// MatchID policies and response correlation have something stable
		// to work with for the rest of this request's lifetime.
		req.Id = uuid.NewString()
	}

	fp := rpcproto.RequestToFingerprint(req)

	if cached, ok := d.Infer.Find(fp, d.Policy); ok {
		d.hit(req.ModelName, req.ModelVersion)
		if d.Policy.MatchPrunedOutput {
			pruned := *cached
			pruned.Outputs = matchpolicy.PrunedOutputs(fp, cached.Outputs)
			cached = &pruned
		}
		resp := rpcproto.CacheResponseToReply(req, cached)
		d.logAndObserveInfer(req, start, true)
		return resp, nil
	}
	d.miss(req.ModelName, req.ModelVersion)

	if d.Mode == ModeServe {
		d.logAndObserveInfer(req, start, false)
		return nil, status.Errorf(codes.NotFound, "no cached response for model %s/%s matching this request", req.ModelName, req.ModelVersion)
	}
	if d.Upstream == nil {
		return nil, status.Error(codes.Unavailable, "collect mode requires an upstream target")
	}

	upstreamResp, err := d.Upstream.ModelInfer(ctx, req)
	if err != nil {
		d.errored(req.ModelName, req.ModelVersion, "upstream")
		return nil, translateUpstreamErr(err)
	}

	respToCache := rpcproto.ResponseToCacheResponse(upstreamResp)
	entry := entrycodec.InferEntry{Input: *fp, Output: *respToCache}
	if inserted, err := d.Infer.Insert(entry); err != nil {
		d.errored(req.ModelName, req.ModelVersion, "persist")
		return nil, status.Errorf(codes.Unknown, "persisting entry for %s/%s: %v", req.ModelName, req.ModelVersion, err)
	} else if inserted {
		d.inserted(req.ModelName, req.ModelVersion)
	}

	d.logAndObserveInfer(req, start, false)
	return upstreamResp, nil
}

// logAndObserveInfer records the per-call duration histogram and emits the
// klog.V(4) line carried over from original_source/src/service.rs's
// ModelInfer handler.
func (d *Dispatcher) logAndObserveInfer(req *rpcproto.ModelInferRequest, start time.Time, hit bool) {
	elapsed := time.Since(start)
	d.observe("ModelInfer", elapsed)
	klog.V(4).Infof("ModelInfer model=%s version=%s elapsed=%s hit=%t", req.ModelName, req.ModelVersion, elapsed, hit)
}

// ModelConfig implements the ModelConfig RPC's cache-aside logic
// (spec.md scenario S7): keyed on (name, version) alone, no equivalence
// relation involved.
func (d *Dispatcher) ModelConfig(ctx context.Context, req *rpcproto.ModelConfigRequest) (*rpcproto.ModelConfigResponse, error) {
	if cached, ok := d.Configs.Find(req.Name, req.Version); ok {
		d.hit(req.Name, req.Version)
		return &rpcproto.ModelConfigResponse{Config: cached.RawResponse}, nil
	}
	d.miss(req.Name, req.Version)

	if d.Mode == ModeServe {
		return nil, status.Errorf(codes.NotFound, "no cached config for model %s/%s", req.Name, req.Version)
	}
	if d.Upstream == nil {
		return nil, status.Error(codes.Unavailable, "collect mode requires an upstream target")
	}

	resp, err := d.Upstream.ModelConfig(ctx, req)
	if err != nil {
		d.errored(req.Name, req.Version, "upstream")
		return nil, translateUpstreamErr(err)
	}

	entry := entrycodec.ConfigEntry{ModelName: req.Name, ModelVersion: req.Version, RawResponse: resp.Config}
	if inserted, err := d.Configs.Insert(entry); err != nil {
		d.errored(req.Name, req.Version, "persist")
		return nil, status.Errorf(codes.Unknown, "persisting config for %s/%s: %v", req.Name, req.Version, err)
	} else if inserted {
		d.inserted(req.Name, req.Version)
	}
	return resp, nil
}

// streamConn is the minimal surface ModelStreamInfer needs, matched by
// rpcproto.InferenceService_ModelStreamInferServer.
type streamConn interface {
	Send(*rpcproto.ModelInferResponse) error
	Recv() (*rpcproto.ModelInferRequest, error)
	Context() context.Context
}

// ModelStreamInfer implements the bidirectional ModelStreamInfer RPC. A
// single sequential worker per stream (spec.md §5) runs in the calling
// handler goroutine; it reads and dispatches inbound messages strictly one
// at a time, pushing each response onto a capacity-4 channel that one
// spawned sender goroutine drains into stream.Send - the mpsc channel spec.md
// §5 describes as applying send-side backpressure, not a concurrency limit
// over request processing. Because there is only ever one in-flight
// message, spec.md §9(d)'s bug-compatible "return on first miss/error"
// behavior falls out naturally: the worker simply stops reading further
// messages once dispatchInfer fails.
func (d *Dispatcher) ModelStreamInfer(stream streamConn) error {
	ctx := stream.Context()
	out := make(chan *rpcproto.ModelInferResponse, streamSendBuffer)
	sendErr := make(chan error, 1)

	go func() {
		defer close(sendErr)
		for resp := range out {
			if err := stream.Send(resp); err != nil {
				sendErr <- fmt.Errorf("send response: %w", err)
				return
			}
		}
	}()

	recvErr := d.runStreamWorker(ctx, stream, out, sendErr)
	close(out)

	// The sender may also have failed (or may still be draining the last
	// buffered responses); either error is reported, recv taking priority
	// since it reflects the earlier failure in wall-clock terms.
	if recvErr != nil {
		return recvErr
	}
	return <-sendErr
}

// runStreamWorker is the single sequential worker spec.md §5 describes: it
// owns the recv/dispatch loop for one stream and is the only goroutine that
// ever calls dispatchInfer for it. It stops as soon as dispatchInfer
// returns an error (a serve-mode miss included), matching spec.md §9(d)'s bug-compatible
// "return on first failure" requirement - trivially so here, since there
// is never a second message already in flight to race against. sendErr is
// also watched while pushing a response so a send failure unblocks this
// goroutine instead of leaving it stuck writing to a channel nobody drains.
func (d *Dispatcher) runStreamWorker(ctx context.Context, stream streamConn, out chan<- *rpcproto.ModelInferResponse, sendErr <-chan error) error {
	for {
		req, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp, err := d.dispatchInfer(ctx, req)
		if err != nil {
			return err
		}

		select {
		case out <- resp:
		case err := <-sendErr:
			return err
		}
	}
}

func translateUpstreamErr(err error) error {
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	return status.Errorf(codes.Unknown, "upstream call failed: %v", err)
}

