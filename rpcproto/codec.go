package rpcproto

import (
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/encoding"
)

var codecJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonCodec implements grpc/encoding.Codec over the message types in this
// package, standing in for the real protobuf wire codec a generated
// KServe v2 client/server pair would use (out of scope here, see
// DESIGN.md). Registering it under the name "proto" makes it the codec
// grpc-go selects by default for any call that doesn't explicitly
// negotiate another content-subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return codecJSON.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return codecJSON.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "proto"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
