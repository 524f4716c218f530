package rpcproto

// The following request/response pairs round out the KServe v2
// GRPCInferenceService surface beyond inference itself. This service
// never manages a real model repository or shared-memory regions, so
// their handlers are Unimplemented (see UnimplementedInferenceServer) -
// wired into the ServiceDesc so a client probing the full interface gets
// a proper gRPC status instead of a connection-level method-not-found.

type RepositoryIndexRequest struct {
	RepositoryName string `json:"repository_name,omitempty"`
	Ready          bool   `json:"ready,omitempty"`
}
type RepositoryIndexResponse struct {
	Models []*RepositoryIndexResponseModelEntry `json:"models,omitempty"`
}
type RepositoryIndexResponseModelEntry struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	State   string `json:"state,omitempty"`
}

type RepositoryModelLoadRequest struct {
	RepositoryName string `json:"repository_name,omitempty"`
	ModelName      string `json:"model_name"`
}
type RepositoryModelLoadResponse struct{}

type RepositoryModelUnloadRequest struct {
	RepositoryName string `json:"repository_name,omitempty"`
	ModelName      string `json:"model_name"`
}
type RepositoryModelUnloadResponse struct{}

type SystemSharedMemoryStatusRequest struct {
	Name string `json:"name,omitempty"`
}
type SystemSharedMemoryStatusResponse struct {
	Regions map[string]*SharedMemoryRegionStatus `json:"regions,omitempty"`
}
type SharedMemoryRegionStatus struct {
	Name     string `json:"name"`
	Key      string `json:"key"`
	Offset   uint64 `json:"offset"`
	ByteSize uint64 `json:"byte_size"`
}

type SystemSharedMemoryRegisterRequest struct {
	Name     string `json:"name"`
	Key      string `json:"key"`
	Offset   uint64 `json:"offset"`
	ByteSize uint64 `json:"byte_size"`
}
type SystemSharedMemoryRegisterResponse struct{}

type SystemSharedMemoryUnregisterRequest struct {
	Name string `json:"name,omitempty"`
}
type SystemSharedMemoryUnregisterResponse struct{}

type CudaSharedMemoryStatusRequest struct {
	Name string `json:"name,omitempty"`
}
type CudaSharedMemoryStatusResponse struct {
	Regions map[string]*SharedMemoryRegionStatus `json:"regions,omitempty"`
}

type CudaSharedMemoryRegisterRequest struct {
	Name     string `json:"name"`
	RawHandle []byte `json:"raw_handle"`
	Device    int64  `json:"device_id"`
	ByteSize  uint64 `json:"byte_size"`
}
type CudaSharedMemoryRegisterResponse struct{}

type CudaSharedMemoryUnregisterRequest struct {
	Name string `json:"name,omitempty"`
}
type CudaSharedMemoryUnregisterResponse struct{}

type TraceSettingRequest struct {
	ModelName string            `json:"model_name,omitempty"`
	Settings  map[string]string `json:"settings,omitempty"`
}
type TraceSettingResponse struct {
	Settings map[string]string `json:"settings,omitempty"`
}

type LogSettingsRequest struct {
	Settings map[string]string `json:"settings,omitempty"`
}
type LogSettingsResponse struct {
	Settings map[string]string `json:"settings,omitempty"`
}
