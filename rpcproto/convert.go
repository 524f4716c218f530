package rpcproto

import (
	"github.com/rpcpool/inferencestore/fingerprint"
)

func valueFromParam(p *InferParameter) (fingerprint.Value, bool) {
	if p == nil {
		return fingerprint.Value{}, false
	}
	switch {
	case p.BoolParam != nil:
		return fingerprint.Value{Kind: fingerprint.KindBool, Bool: *p.BoolParam}, true
	case p.Int64Param != nil:
		return fingerprint.Value{Kind: fingerprint.KindInt64, Int64: *p.Int64Param}, true
	case p.Uint64Param != nil:
		return fingerprint.Value{Kind: fingerprint.KindUint64, Uint64: *p.Uint64Param}, true
	case p.DoubleParam != nil:
		return fingerprint.Value{Kind: fingerprint.KindDouble, Double: *p.DoubleParam}, true
	case p.StringParam != nil:
		return fingerprint.Value{Kind: fingerprint.KindString, String: *p.StringParam}, true
	default:
		return fingerprint.Value{}, false
	}
}

func paramFromValue(v fingerprint.Value) *InferParameter {
	switch v.Kind {
	case fingerprint.KindBool:
		return &InferParameter{BoolParam: &v.Bool}
	case fingerprint.KindInt64:
		return &InferParameter{Int64Param: &v.Int64}
	case fingerprint.KindUint64:
		return &InferParameter{Uint64Param: &v.Uint64}
	case fingerprint.KindDouble:
		return &InferParameter{DoubleParam: &v.Double}
	case fingerprint.KindString:
		return &InferParameter{StringParam: &v.String}
	default:
		return &InferParameter{}
	}
}

func paramsToOrdered(m map[string]*InferParameter) fingerprint.OrderedParams {
	pairs := make([]fingerprint.Param, 0, len(m))
	for k, p := range m {
		v, ok := valueFromParam(p)
		pairs = append(pairs, fingerprint.Param{Key: k, Value: v, Set: ok})
	}
	return fingerprint.NewOrderedParams(pairs)
}

func orderedToParams(p fingerprint.OrderedParams) map[string]*InferParameter {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]*InferParameter, len(p))
	for _, kv := range p {
		if !kv.Set {
			continue
		}
		out[kv.Key] = paramFromValue(kv.Value)
	}
	return out
}

// typedValuesFromContents flattens a tensor's typed contents into the
// ordered scalar sequence ComputeContentHash's typedFallback expects, used
// only when a caller sent typed values instead of a raw byte buffer for
// that input.
func typedValuesFromContents(c *InferTensorContents) []fingerprint.Value {
	if c == nil {
		return nil
	}
	var out []fingerprint.Value
	for _, b := range c.BoolContents {
		out = append(out, fingerprint.Value{Kind: fingerprint.KindBool, Bool: b})
	}
	for _, i := range c.Int64Contents {
		out = append(out, fingerprint.Value{Kind: fingerprint.KindInt64, Int64: i})
	}
	for _, u := range c.Uint64Contents {
		out = append(out, fingerprint.Value{Kind: fingerprint.KindUint64, Uint64: u})
	}
	for _, f := range c.Fp64Contents {
		out = append(out, fingerprint.Value{Kind: fingerprint.KindDouble, Double: f})
	}
	for _, b := range c.BytesContents {
		out = append(out, fingerprint.Value{Kind: fingerprint.KindString, String: string(b)})
	}
	return out
}

// RequestToFingerprint canonicalizes req into the identity used for
// lookup and, on a miss, for the entry it gets stored under.
func RequestToFingerprint(req *ModelInferRequest) *fingerprint.Fingerprint {
	fp := &fingerprint.Fingerprint{
		ModelName:    req.ModelName,
		ModelVersion: req.ModelVersion,
		ID:           req.Id,
		Parameters:   paramsToOrdered(req.Parameters),
	}
	for _, in := range req.Inputs {
		fp.Inputs = append(fp.Inputs, fingerprint.InputTensorMeta{
			Name:       in.Name,
			Datatype:   in.Datatype,
			Shape:      in.Shape,
			Parameters: paramsToOrdered(in.Parameters),
		})
	}
	for _, out := range req.Outputs {
		fp.Outputs = append(fp.Outputs, fingerprint.OutputTensorMeta{
			Name:       out.Name,
			Parameters: paramsToOrdered(out.Parameters),
		})
	}

	raw := req.RawInputContents
	if len(raw) == 0 && len(req.Inputs) > 0 {
		raw = make([][]byte, len(req.Inputs))
	}
	fp.ContentHash = fingerprint.ComputeContentHash(raw, func(i int) []fingerprint.Value {
		if i < 0 || i >= len(req.Inputs) {
			return nil
		}
		return typedValuesFromContents(req.Inputs[i].Contents)
	})
	return fp
}

// ResponseToCacheResponse extracts the cacheable parts of resp.
func ResponseToCacheResponse(resp *ModelInferResponse) *fingerprint.Response {
	out := &fingerprint.Response{
		Parameters:        paramsToOrdered(resp.Parameters),
		RawOutputContents: resp.RawOutputContents,
	}
	for _, o := range resp.Outputs {
		out.Outputs = append(out.Outputs, fingerprint.OutputTensor{
			Name:       o.Name,
			Datatype:   o.Datatype,
			Shape:      o.Shape,
			Parameters: paramsToOrdered(o.Parameters),
		})
	}
	return out
}

// CacheResponseToReply rebuilds a ModelInferResponse for req from a cached
// or freshly-forwarded fingerprint.Response.
func CacheResponseToReply(req *ModelInferRequest, resp *fingerprint.Response) *ModelInferResponse {
	out := &ModelInferResponse{
		ModelName:         req.ModelName,
		ModelVersion:      req.ModelVersion,
		Id:                req.Id,
		Parameters:        orderedToParams(resp.Parameters),
		RawOutputContents: resp.RawOutputContents,
	}
	for _, o := range resp.Outputs {
		out.Outputs = append(out.Outputs, &InferOutputTensor{
			Name:       o.Name,
			Datatype:   o.Datatype,
			Shape:      o.Shape,
			Parameters: orderedToParams(o.Parameters),
		})
	}
	return out
}
