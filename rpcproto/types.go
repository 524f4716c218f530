// Package rpcproto defines the KServe v2 inference-protocol message types
// this service speaks over gRPC, and the machinery to carry them without
// a real protobuf toolchain: a hand-authored message set plus a
// json-iterator-backed grpc.Codec. Generating real .pb.go bindings is out
// of scope (see DESIGN.md); these types model the same wire contract KServe
// v2 clients expect field-for-field, encoded as JSON instead of protobuf
// bytes.
package rpcproto

// InferParameter is the KServe v2 tagged-union parameter value.
type InferParameter struct {
	BoolParam   *bool    `json:"bool_param,omitempty"`
	Int64Param  *int64   `json:"int64_param,omitempty"`
	Uint64Param *uint64  `json:"uint64_param,omitempty"`
	DoubleParam *float64 `json:"double_param,omitempty"`
	StringParam *string  `json:"string_param,omitempty"`
}

// InferInputTensor is one input tensor of a ModelInferRequest.
type InferInputTensor struct {
	Name     string                     `json:"name"`
	Datatype string                     `json:"datatype"`
	Shape    []int64                    `json:"shape"`
	Parameters map[string]*InferParameter `json:"parameters,omitempty"`
	Contents   *InferTensorContents       `json:"contents,omitempty"`
}

// InferRequestedOutputTensor is one requested output of a ModelInferRequest.
type InferRequestedOutputTensor struct {
	Name       string                     `json:"name"`
	Parameters map[string]*InferParameter `json:"parameters,omitempty"`
}

// InferOutputTensor is one output tensor of a ModelInferResponse.
type InferOutputTensor struct {
	Name       string                     `json:"name"`
	Datatype   string                     `json:"datatype"`
	Shape      []int64                    `json:"shape"`
	Parameters map[string]*InferParameter `json:"parameters,omitempty"`
	Contents   *InferTensorContents       `json:"contents,omitempty"`
}

// InferTensorContents is the typed-content fallback for a tensor that did
// not arrive as a raw byte buffer (spec.md §3's "typed contents" path).
type InferTensorContents struct {
	BoolContents   []bool    `json:"bool_contents,omitempty"`
	Int64Contents  []int64   `json:"int64_contents,omitempty"`
	Uint64Contents []uint64  `json:"uint64_contents,omitempty"`
	Fp64Contents   []float64 `json:"fp64_contents,omitempty"`
	BytesContents  [][]byte  `json:"bytes_contents,omitempty"`
}

// ModelInferRequest is a single ModelInfer call's payload.
type ModelInferRequest struct {
	ModelName        string                         `json:"model_name"`
	ModelVersion     string                         `json:"model_version,omitempty"`
	Id               string                         `json:"id,omitempty"`
	Parameters       map[string]*InferParameter     `json:"parameters,omitempty"`
	Inputs           []*InferInputTensor            `json:"inputs"`
	Outputs          []*InferRequestedOutputTensor  `json:"outputs,omitempty"`
	RawInputContents [][]byte                       `json:"raw_input_contents,omitempty"`
}

// ModelInferResponse is a single ModelInfer call's reply.
type ModelInferResponse struct {
	ModelName         string                     `json:"model_name"`
	ModelVersion      string                     `json:"model_version,omitempty"`
	Id                string                     `json:"id,omitempty"`
	Parameters        map[string]*InferParameter `json:"parameters,omitempty"`
	Outputs           []*InferOutputTensor       `json:"outputs"`
	RawOutputContents [][]byte                   `json:"raw_output_contents,omitempty"`
}

// ModelConfigRequest asks for a model's deployed configuration.
type ModelConfigRequest struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ModelConfigResponse carries a model's configuration verbatim, as
// returned by whichever upstream server produced it: the cache stores and
// replays this opaquely rather than modeling every possible backend
// config schema.
type ModelConfigResponse struct {
	Config []byte `json:"config"`
}

type ServerLiveRequest struct{}
type ServerLiveResponse struct {
	Live bool `json:"live"`
}

type ServerReadyRequest struct{}
type ServerReadyResponse struct {
	Ready bool `json:"ready"`
}

type ModelReadyRequest struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}
type ModelReadyResponse struct {
	Ready bool `json:"ready"`
}

type ServerMetadataRequest struct{}
type ServerMetadataResponse struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Extensions []string `json:"extensions,omitempty"`
}

type ModelMetadataRequest struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type TensorMetadata struct {
	Name     string  `json:"name"`
	Datatype string  `json:"datatype"`
	Shape    []int64 `json:"shape"`
}

type ModelMetadataResponse struct {
	Name     string            `json:"name"`
	Versions []string          `json:"versions,omitempty"`
	Platform string            `json:"platform,omitempty"`
	Inputs   []*TensorMetadata `json:"inputs,omitempty"`
	Outputs  []*TensorMetadata `json:"outputs,omitempty"`
}
