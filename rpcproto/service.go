package rpcproto

import (
	"context"

	"google.golang.org/grpc"
)

// InferenceServer is the full KServe v2 GRPCInferenceService surface this
// process exposes. A concrete implementation normally embeds
// UnimplementedInferenceServer and overrides only the RPCs it actually
// serves (spec.md's cache sits in front of ModelInfer/ModelStreamInfer/
// ModelConfig; everything else either answers trivially or is
// unimplemented).
type InferenceServer interface {
	ServerLive(context.Context, *ServerLiveRequest) (*ServerLiveResponse, error)
	ServerReady(context.Context, *ServerReadyRequest) (*ServerReadyResponse, error)
	ModelReady(context.Context, *ModelReadyRequest) (*ModelReadyResponse, error)
	ServerMetadata(context.Context, *ServerMetadataRequest) (*ServerMetadataResponse, error)
	ModelMetadata(context.Context, *ModelMetadataRequest) (*ModelMetadataResponse, error)
	ModelInfer(context.Context, *ModelInferRequest) (*ModelInferResponse, error)
	ModelStreamInfer(InferenceService_ModelStreamInferServer) error
	ModelConfig(context.Context, *ModelConfigRequest) (*ModelConfigResponse, error)

	RepositoryIndex(context.Context, *RepositoryIndexRequest) (*RepositoryIndexResponse, error)
	RepositoryModelLoad(context.Context, *RepositoryModelLoadRequest) (*RepositoryModelLoadResponse, error)
	RepositoryModelUnload(context.Context, *RepositoryModelUnloadRequest) (*RepositoryModelUnloadResponse, error)
	SystemSharedMemoryStatus(context.Context, *SystemSharedMemoryStatusRequest) (*SystemSharedMemoryStatusResponse, error)
	SystemSharedMemoryRegister(context.Context, *SystemSharedMemoryRegisterRequest) (*SystemSharedMemoryRegisterResponse, error)
	SystemSharedMemoryUnregister(context.Context, *SystemSharedMemoryUnregisterRequest) (*SystemSharedMemoryUnregisterResponse, error)
	CudaSharedMemoryStatus(context.Context, *CudaSharedMemoryStatusRequest) (*CudaSharedMemoryStatusResponse, error)
	CudaSharedMemoryRegister(context.Context, *CudaSharedMemoryRegisterRequest) (*CudaSharedMemoryRegisterResponse, error)
	CudaSharedMemoryUnregister(context.Context, *CudaSharedMemoryUnregisterRequest) (*CudaSharedMemoryUnregisterResponse, error)
	TraceSetting(context.Context, *TraceSettingRequest) (*TraceSettingResponse, error)
	LogSettings(context.Context, *LogSettingsRequest) (*LogSettingsResponse, error)
}

// InferenceService_ModelStreamInferServer is the bidirectional stream
// handle passed to ModelStreamInfer, mirroring what protoc-gen-go-grpc
// would generate for a (stream ModelInferRequest) returns (stream
// ModelInferResponse) RPC.
type InferenceService_ModelStreamInferServer interface {
	Send(*ModelInferResponse) error
	Recv() (*ModelInferRequest, error)
	grpc.ServerStream
}

type modelStreamInferServer struct {
	grpc.ServerStream
}

func (x *modelStreamInferServer) Send(m *ModelInferResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *modelStreamInferServer) Recv() (*ModelInferRequest, error) {
	m := new(ModelInferRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

const serviceName = "inference.GRPCInferenceService"

func unaryHandler[Req, Resp any](call func(InferenceServer, context.Context, *Req) (*Resp, error), fullMethod string) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InferenceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InferenceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func modelStreamInferHandler(srv any, stream grpc.ServerStream) error {
	return srv.(InferenceServer).ModelStreamInfer(&modelStreamInferServer{stream})
}

// ServiceDesc is the grpc.ServiceDesc a real protoc-gen-go-grpc run would
// have produced for the inference.GRPCInferenceService service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ServerLive", Handler: unaryHandler(InferenceServer.ServerLive, serviceName+"/ServerLive")},
		{MethodName: "ServerReady", Handler: unaryHandler(InferenceServer.ServerReady, serviceName+"/ServerReady")},
		{MethodName: "ModelReady", Handler: unaryHandler(InferenceServer.ModelReady, serviceName+"/ModelReady")},
		{MethodName: "ServerMetadata", Handler: unaryHandler(InferenceServer.ServerMetadata, serviceName+"/ServerMetadata")},
		{MethodName: "ModelMetadata", Handler: unaryHandler(InferenceServer.ModelMetadata, serviceName+"/ModelMetadata")},
		{MethodName: "ModelInfer", Handler: unaryHandler(InferenceServer.ModelInfer, serviceName+"/ModelInfer")},
		{MethodName: "ModelConfig", Handler: unaryHandler(InferenceServer.ModelConfig, serviceName+"/ModelConfig")},
		{MethodName: "RepositoryIndex", Handler: unaryHandler(InferenceServer.RepositoryIndex, serviceName+"/RepositoryIndex")},
		{MethodName: "RepositoryModelLoad", Handler: unaryHandler(InferenceServer.RepositoryModelLoad, serviceName+"/RepositoryModelLoad")},
		{MethodName: "RepositoryModelUnload", Handler: unaryHandler(InferenceServer.RepositoryModelUnload, serviceName+"/RepositoryModelUnload")},
		{MethodName: "SystemSharedMemoryStatus", Handler: unaryHandler(InferenceServer.SystemSharedMemoryStatus, serviceName+"/SystemSharedMemoryStatus")},
		{MethodName: "SystemSharedMemoryRegister", Handler: unaryHandler(InferenceServer.SystemSharedMemoryRegister, serviceName+"/SystemSharedMemoryRegister")},
		{MethodName: "SystemSharedMemoryUnregister", Handler: unaryHandler(InferenceServer.SystemSharedMemoryUnregister, serviceName+"/SystemSharedMemoryUnregister")},
		{MethodName: "CudaSharedMemoryStatus", Handler: unaryHandler(InferenceServer.CudaSharedMemoryStatus, serviceName+"/CudaSharedMemoryStatus")},
		{MethodName: "CudaSharedMemoryRegister", Handler: unaryHandler(InferenceServer.CudaSharedMemoryRegister, serviceName+"/CudaSharedMemoryRegister")},
		{MethodName: "CudaSharedMemoryUnregister", Handler: unaryHandler(InferenceServer.CudaSharedMemoryUnregister, serviceName+"/CudaSharedMemoryUnregister")},
		{MethodName: "TraceSetting", Handler: unaryHandler(InferenceServer.TraceSetting, serviceName+"/TraceSetting")},
		{MethodName: "LogSettings", Handler: unaryHandler(InferenceServer.LogSettings, serviceName+"/LogSettings")},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ModelStreamInfer",
			Handler:       modelStreamInferHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "inference.proto",
}

// RegisterInferenceServer registers srv with s the way a generated
// RegisterXServer function would.
func RegisterInferenceServer(s grpc.ServiceRegistrar, srv InferenceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
