package rpcproto

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnimplementedInferenceServer can be embedded in a concrete InferenceServer
// implementation to get Unimplemented errors for free on any RPC the
// embedder doesn't override itself, matching the forward-compatibility
// pattern protoc-gen-go-grpc generates by default.
type UnimplementedInferenceServer struct{}

func (UnimplementedInferenceServer) ServerLive(context.Context, *ServerLiveRequest) (*ServerLiveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ServerLive not implemented")
}
func (UnimplementedInferenceServer) ServerReady(context.Context, *ServerReadyRequest) (*ServerReadyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ServerReady not implemented")
}
func (UnimplementedInferenceServer) ModelReady(context.Context, *ModelReadyRequest) (*ModelReadyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ModelReady not implemented")
}
func (UnimplementedInferenceServer) ServerMetadata(context.Context, *ServerMetadataRequest) (*ServerMetadataResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ServerMetadata not implemented")
}
func (UnimplementedInferenceServer) ModelMetadata(context.Context, *ModelMetadataRequest) (*ModelMetadataResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ModelMetadata not implemented")
}
func (UnimplementedInferenceServer) ModelInfer(context.Context, *ModelInferRequest) (*ModelInferResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ModelInfer not implemented")
}
func (UnimplementedInferenceServer) ModelStreamInfer(InferenceService_ModelStreamInferServer) error {
	return status.Error(codes.Unimplemented, "method ModelStreamInfer not implemented")
}
func (UnimplementedInferenceServer) ModelConfig(context.Context, *ModelConfigRequest) (*ModelConfigResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ModelConfig not implemented")
}
func (UnimplementedInferenceServer) RepositoryIndex(context.Context, *RepositoryIndexRequest) (*RepositoryIndexResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RepositoryIndex not implemented")
}
func (UnimplementedInferenceServer) RepositoryModelLoad(context.Context, *RepositoryModelLoadRequest) (*RepositoryModelLoadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RepositoryModelLoad not implemented")
}
func (UnimplementedInferenceServer) RepositoryModelUnload(context.Context, *RepositoryModelUnloadRequest) (*RepositoryModelUnloadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RepositoryModelUnload not implemented")
}
func (UnimplementedInferenceServer) SystemSharedMemoryStatus(context.Context, *SystemSharedMemoryStatusRequest) (*SystemSharedMemoryStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SystemSharedMemoryStatus not implemented")
}
func (UnimplementedInferenceServer) SystemSharedMemoryRegister(context.Context, *SystemSharedMemoryRegisterRequest) (*SystemSharedMemoryRegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SystemSharedMemoryRegister not implemented")
}
func (UnimplementedInferenceServer) SystemSharedMemoryUnregister(context.Context, *SystemSharedMemoryUnregisterRequest) (*SystemSharedMemoryUnregisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SystemSharedMemoryUnregister not implemented")
}
func (UnimplementedInferenceServer) CudaSharedMemoryStatus(context.Context, *CudaSharedMemoryStatusRequest) (*CudaSharedMemoryStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CudaSharedMemoryStatus not implemented")
}
func (UnimplementedInferenceServer) CudaSharedMemoryRegister(context.Context, *CudaSharedMemoryRegisterRequest) (*CudaSharedMemoryRegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CudaSharedMemoryRegister not implemented")
}
func (UnimplementedInferenceServer) CudaSharedMemoryUnregister(context.Context, *CudaSharedMemoryUnregisterRequest) (*CudaSharedMemoryUnregisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CudaSharedMemoryUnregister not implemented")
}
func (UnimplementedInferenceServer) TraceSetting(context.Context, *TraceSettingRequest) (*TraceSettingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method TraceSetting not implemented")
}
func (UnimplementedInferenceServer) LogSettings(context.Context, *LogSettingsRequest) (*LogSettingsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method LogSettings not implemented")
}
