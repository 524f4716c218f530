package rpcproto

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a thin hand-written stand-in for the generated
// GRPCInferenceServiceClient a real protoc-gen-go-grpc run would produce,
// built directly on grpc.ClientConn.Invoke/NewStream the way this
// package's jsonCodec stands in for the generated marshaler.
type Client struct {
	cc *grpc.ClientConn
}

// NewClient wraps an established connection to an upstream KServe v2
// server.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

func (c *Client) ServerLive(ctx context.Context, in *ServerLiveRequest, opts ...grpc.CallOption) (*ServerLiveResponse, error) {
	out := new(ServerLiveResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ServerLive", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ServerReady(ctx context.Context, in *ServerReadyRequest, opts ...grpc.CallOption) (*ServerReadyResponse, error) {
	out := new(ServerReadyResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ServerReady", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ModelReady(ctx context.Context, in *ModelReadyRequest, opts ...grpc.CallOption) (*ModelReadyResponse, error) {
	out := new(ModelReadyResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ModelReady", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ModelMetadata(ctx context.Context, in *ModelMetadataRequest, opts ...grpc.CallOption) (*ModelMetadataResponse, error) {
	out := new(ModelMetadataResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ModelMetadata", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ModelInfer(ctx context.Context, in *ModelInferRequest, opts ...grpc.CallOption) (*ModelInferResponse, error) {
	out := new(ModelInferResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ModelInfer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ModelConfig(ctx context.Context, in *ModelConfigRequest, opts ...grpc.CallOption) (*ModelConfigResponse, error) {
	out := new(ModelConfigResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ModelConfig", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelStreamInfer opens the bidirectional ModelStreamInfer stream to the
// upstream server.
func (c *Client) ModelStreamInfer(ctx context.Context, opts ...grpc.CallOption) (InferenceService_ModelStreamInferClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+serviceName+"/ModelStreamInfer", opts...)
	if err != nil {
		return nil, err
	}
	return &modelStreamInferClient{stream}, nil
}

// InferenceService_ModelStreamInferClient is the client side of the
// ModelStreamInfer bidirectional stream.
type InferenceService_ModelStreamInferClient interface {
	Send(*ModelInferRequest) error
	Recv() (*ModelInferResponse, error)
	grpc.ClientStream
}

type modelStreamInferClient struct {
	grpc.ClientStream
}

func (x *modelStreamInferClient) Send(m *ModelInferRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *modelStreamInferClient) Recv() (*ModelInferResponse, error) {
	m := new(ModelInferResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
