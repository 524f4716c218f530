// Package service adapts a dispatcher.Dispatcher to the rpcproto.InferenceServer
// surface: trivial responders for the liveness/metadata RPCs, the cache-aside
// logic for ModelInfer/ModelStreamInfer/ModelConfig, and Unimplemented
// stubs (via rpcproto.UnimplementedInferenceServer) for administrative RPCs
// this cache never needs to serve.
package service

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip" // install the gzip compressor, same as the teacher's gRPC listener
	"k8s.io/klog/v2"

	"github.com/rpcpool/inferencestore/dispatcher"
	"github.com/rpcpool/inferencestore/rpcproto"
)

// serverName/serverVersion answer ServerMetadata; overridden at link time
// the way the teacher sets GitTag/GitCommit.
var (
	serverName    = "inferencestore"
	serverVersion = "dev"
)

// maxMessageSize is the decoded message size limit spec.md §5 "Resource
// limits" requires on both directions of the gRPC server.
const maxMessageSize = 128 * 1024 * 1024

// SetVersion lets main record build-time version info for ServerMetadata.
func SetVersion(version string) {
	if version != "" {
		serverVersion = version
	}
}

// Service implements rpcproto.InferenceServer in front of a Dispatcher.
type Service struct {
	rpcproto.UnimplementedInferenceServer

	Dispatcher *dispatcher.Dispatcher
}

func (s *Service) ServerLive(context.Context, *rpcproto.ServerLiveRequest) (*rpcproto.ServerLiveResponse, error) {
	return &rpcproto.ServerLiveResponse{Live: true}, nil
}

func (s *Service) ServerReady(context.Context, *rpcproto.ServerReadyRequest) (*rpcproto.ServerReadyResponse, error) {
	return &rpcproto.ServerReadyResponse{Ready: true}, nil
}

func (s *Service) ModelReady(ctx context.Context, req *rpcproto.ModelReadyRequest) (*rpcproto.ModelReadyResponse, error) {
	// A model is "ready" here whenever collect mode can forward to an
	// upstream, or the inference store holds at least one entry. The
	// requested model name and version are not consulted.
	ready := s.Dispatcher.Mode == dispatcher.ModeCollect || s.Dispatcher.Infer.Len() > 0
	return &rpcproto.ModelReadyResponse{Ready: ready}, nil
}

func (s *Service) ServerMetadata(context.Context, *rpcproto.ServerMetadataRequest) (*rpcproto.ServerMetadataResponse, error) {
	return &rpcproto.ServerMetadataResponse{
		Name:    serverName,
		Version: serverVersion,
	}, nil
}

func (s *Service) ModelMetadata(ctx context.Context, req *rpcproto.ModelMetadataRequest) (*rpcproto.ModelMetadataResponse, error) {
	return &rpcproto.ModelMetadataResponse{
		Name:     req.Name,
		Versions: []string{req.Version},
	}, nil
}

func (s *Service) ModelInfer(ctx context.Context, req *rpcproto.ModelInferRequest) (*rpcproto.ModelInferResponse, error) {
	return s.Dispatcher.ModelInfer(ctx, req)
}

func (s *Service) ModelStreamInfer(stream rpcproto.InferenceService_ModelStreamInferServer) error {
	return s.Dispatcher.ModelStreamInfer(stream)
}

func (s *Service) ModelConfig(ctx context.Context, req *rpcproto.ModelConfigRequest) (*rpcproto.ModelConfigResponse, error) {
	return s.Dispatcher.ModelConfig(ctx, req)
}

// ListenAndServeGRPC starts the gRPC server on listenOn and blocks until it
// stops or ctx is canceled, the same shape as the teacher's
// MultiEpoch.ListenAndServeGRPC.
func (s *Service) ListenAndServeGRPC(ctx context.Context, listenOn string) error {
	lis, err := net.Listen("tcp", listenOn)
	if err != nil {
		return fmt.Errorf("failed to create listener for gRPC server: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMessageSize),
		grpc.MaxSendMsgSize(maxMessageSize),
	)
	rpcproto.RegisterInferenceServer(grpcServer, s)

	go func() {
		<-ctx.Done()
		klog.Info("shutting down gRPC server")
		grpcServer.GracefulStop()
	}()

	klog.Infof("serving KServe v2 inference API on %s (mode=%s)", listenOn, s.Dispatcher.Mode)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve gRPC server: %w", err)
	}
	return nil
}
