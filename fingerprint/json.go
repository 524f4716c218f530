package fingerprint

import (
	"bytes"
	"encoding/base64"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// json is configured to sort map keys on marshal, which for this package's
// plain-map fields (there are none left once OrderedParams has its own
// MarshalJSON - see below) would already give the key-ordered output
// spec.md §9 requires. OrderedParams bypasses that default entirely by
// implementing MarshalJSON/UnmarshalJSON directly, since it must also
// round-trip the Set/absent distinction that a bare map cannot represent.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonValue is the wire shape of a Value: a discriminant string plus the
// one populated field for that kind.
type jsonValue struct {
	Kind   string `json:"kind"`
	Bool   *bool  `json:"bool,omitempty"`
	Int64  *int64 `json:"int64,omitempty"`
	Uint64 *uint64 `json:"uint64,omitempty"`
	Double *float64 `json:"double,omitempty"`
	String *string `json:"string,omitempty"`
}

func kindName(k Kind) string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{Kind: kindName(v.Kind)}
	switch v.Kind {
	case KindBool:
		jv.Bool = &v.Bool
	case KindInt64:
		jv.Int64 = &v.Int64
	case KindUint64:
		jv.Uint64 = &v.Uint64
	case KindDouble:
		jv.Double = &v.Double
	case KindString:
		jv.String = &v.String
	}
	return json.Marshal(jv)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "bool":
		v.Kind = KindBool
		if jv.Bool != nil {
			v.Bool = *jv.Bool
		}
	case "int64":
		v.Kind = KindInt64
		if jv.Int64 != nil {
			v.Int64 = *jv.Int64
		}
	case "uint64":
		v.Kind = KindUint64
		if jv.Uint64 != nil {
			v.Uint64 = *jv.Uint64
		}
	case "double":
		v.Kind = KindDouble
		if jv.Double != nil {
			v.Double = *jv.Double
		}
	case "string":
		v.Kind = KindString
		if jv.String != nil {
			v.String = *jv.String
		}
	default:
		return fmt.Errorf("fingerprint: unknown parameter kind %q", jv.Kind)
	}
	return nil
}

// MarshalJSON writes p as a JSON object with keys in ascending bytewise
// order (already guaranteed by construction, see NewOrderedParams) and a
// JSON null for any entry with Set=false.
func (p OrderedParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		if !kv.Set {
			buf.WriteString("null")
			continue
		}
		valJSON, err := kv.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object into p, sorting entries by key to
// restore the canonical ordering regardless of wire order.
func (p *OrderedParams) UnmarshalJSON(data []byte) error {
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		// An empty or null object decodes to a nil OrderedParams, the same
		// value an unset parameters field holds before encoding.
		*p = nil
		return nil
	}
	out := make(OrderedParams, 0, len(raw))
	for k, v := range raw {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			out = append(out, Param{Key: k, Set: false})
			continue
		}
		var val Value
		if err := val.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("fingerprint: parameter %q: %w", k, err)
		}
		out = append(out, Param{Key: k, Value: val, Set: true})
	}
	*p = NewOrderedParams(out)
	return nil
}

// base64Bytes32 is a 32-byte array that marshals as a base64 string, used
// for Fingerprint.ContentHash (spec.md §4.3: "byte sequences... are
// base64-encoded").
type base64Bytes32 [32]byte

func (b base64Bytes32) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b[:]))
}

func (b *base64Bytes32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	if len(decoded) != 32 {
		return fmt.Errorf("fingerprint: contentHash must decode to 32 bytes, got %d", len(decoded))
	}
	copy(b[:], decoded)
	return nil
}

// wireFingerprint is the JSON wire shape of a Fingerprint (spec.md §4.3).
type wireFingerprint struct {
	ModelName    string              `json:"modelName"`
	ModelVersion string              `json:"modelVersion"`
	ID           string              `json:"id"`
	Parameters   OrderedParams       `json:"parameters"`
	Inputs       []wireInputTensor   `json:"inputs"`
	Outputs      []wireOutputTensor  `json:"outputs"`
	ContentHash  base64Bytes32       `json:"contentHash"`
}

type wireInputTensor struct {
	Name       string        `json:"name"`
	Datatype   string        `json:"datatype"`
	Shape      []int64       `json:"shape"`
	Parameters OrderedParams `json:"parameters"`
}

type wireOutputTensor struct {
	Name       string        `json:"name"`
	Parameters OrderedParams `json:"parameters"`
}

func (fp Fingerprint) MarshalJSON() ([]byte, error) {
	w := wireFingerprint{
		ModelName:    fp.ModelName,
		ModelVersion: fp.ModelVersion,
		ID:           fp.ID,
		Parameters:   fp.Parameters,
		ContentHash:  base64Bytes32(fp.ContentHash),
	}
	for _, in := range fp.Inputs {
		w.Inputs = append(w.Inputs, wireInputTensor{in.Name, in.Datatype, in.Shape, in.Parameters})
	}
	for _, o := range fp.Outputs {
		w.Outputs = append(w.Outputs, wireOutputTensor{o.Name, o.Parameters})
	}
	return json.Marshal(w)
}

func (fp *Fingerprint) UnmarshalJSON(data []byte) error {
	var w wireFingerprint
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fp.ModelName = w.ModelName
	fp.ModelVersion = w.ModelVersion
	fp.ID = w.ID
	fp.Parameters = w.Parameters
	fp.ContentHash = [32]byte(w.ContentHash)
	fp.Inputs = nil
	for _, in := range w.Inputs {
		fp.Inputs = append(fp.Inputs, InputTensorMeta{in.Name, in.Datatype, in.Shape, in.Parameters})
	}
	fp.Outputs = nil
	for _, o := range w.Outputs {
		fp.Outputs = append(fp.Outputs, OutputTensorMeta{o.Name, o.Parameters})
	}
	return nil
}

// wireOutputTensorFull is the JSON wire shape of a response OutputTensor,
// which unlike a requested OutputTensorMeta carries datatype and shape.
type wireOutputTensorFull struct {
	Name       string        `json:"name"`
	Datatype   string        `json:"datatype"`
	Shape      []int64       `json:"shape"`
	Parameters OrderedParams `json:"parameters"`
}

type wireResponse struct {
	Parameters        OrderedParams          `json:"parameters"`
	Outputs           []wireOutputTensorFull `json:"outputs"`
	RawOutputContents []string               `json:"rawOutputContents"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	w := wireResponse{Parameters: r.Parameters}
	for _, o := range r.Outputs {
		w.Outputs = append(w.Outputs, wireOutputTensorFull{o.Name, o.Datatype, o.Shape, o.Parameters})
	}
	for _, raw := range r.RawOutputContents {
		w.RawOutputContents = append(w.RawOutputContents, base64.StdEncoding.EncodeToString(raw))
	}
	return json.Marshal(w)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Parameters = w.Parameters
	r.Outputs = nil
	for _, o := range w.Outputs {
		r.Outputs = append(r.Outputs, OutputTensor{o.Name, o.Datatype, o.Shape, o.Parameters})
	}
	r.RawOutputContents = nil
	for _, s := range w.RawOutputContents {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("fingerprint: rawOutputContents: %w", err)
		}
		r.RawOutputContents = append(r.RawOutputContents, decoded)
	}
	return nil
}
