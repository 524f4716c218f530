// Package fingerprint canonicalizes an inference request into a
// Fingerprint: a stable identity used both to match incoming requests
// against previously cached ones and to derive the on-disk filename a
// cached response is stored under.
package fingerprint

import (
	"encoding/binary"
	"math"
	"sort"
)

// Kind discriminates the tagged scalar variants a parameter value may hold.
// The numeric values match the wire discriminant byte written by valueBytes
// (spec.md §4.1) and must not be renumbered.
type Kind byte

const (
	KindBool Kind = iota + 1
	KindInt64
	KindString
	KindDouble
	KindUint64
)

// Value is a tagged scalar parameter value (InferParameter's oneof).
type Value struct {
	Kind   Kind
	Bool   bool
	Int64  int64
	Uint64 uint64
	Double float64
	String string
}

// Param is a single entry in an ordered parameter map. A parameter name
// maps to an *optional* tagged scalar (spec.md §3): Set is false for a
// key whose value is explicitly absent (e.g. the wire equivalent of a
// present key with a null/unset oneof). matchpolicy and the metadataHash
// computation treat a Set=false Param the same as a key missing from the
// map entirely (see OrderedParams.Get and writeOrderedParams); only the
// JSON encoding keeps the two apart, writing null for a Set=false Param.
type Param struct {
	Key   string
	Value Value
	Set   bool
}

// OrderedParams is a key-ordered (ascending, bytewise) parameter mapping.
// Two logically equal parameter sets must produce the same OrderedParams
// slice so that serialization and hashing are deterministic (spec.md §3).
type OrderedParams []Param

// NewOrderedParams sorts the given pairs by key and returns them as an
// OrderedParams. Callers that already have sorted input may skip this and
// construct the slice directly.
func NewOrderedParams(pairs []Param) OrderedParams {
	out := make(OrderedParams, len(pairs))
	copy(out, pairs)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Get returns the value for key and whether it carries a concrete value.
// A key that is absent from p and a key present with Set=false both report
// ok=false here: matchpolicy's keyedMapEqual treats "no value for k" the
// same way regardless of which of those two shapes produced it.
func (p OrderedParams) Get(key string) (Value, bool) {
	// p is small in practice (single-digit parameter counts per request),
	// so a linear scan over the sorted slice is simpler and fast enough;
	// avoid a binary search's added bug surface for no measurable gain.
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, kv.Set
		}
	}
	return Value{}, false
}

// Keys returns the set of keys present in p that carry a concrete value.
func (p OrderedParams) Keys() map[string]struct{} {
	out := make(map[string]struct{}, len(p))
	for _, kv := range p {
		if kv.Set {
			out[kv.Key] = struct{}{}
		}
	}
	return out
}

// valueBytes encodes a Value as a one-byte discriminant followed by its
// native-endian payload, per spec.md §4.1. Native-endian is kept
// deliberately for bug-compatibility with the original Rust implementation
// (an intra-file hashing scheme, never exchanged across machines); shape
// dimensions use little-endian instead, also per spec.md §4.1.
func valueBytes(v Value) []byte {
	switch v.Kind {
	case KindBool:
		b := byte(0x00)
		if v.Bool {
			b = 0x01
		}
		return []byte{byte(KindBool), b}
	case KindInt64:
		buf := make([]byte, 9)
		buf[0] = byte(KindInt64)
		binary.NativeEndian.PutUint64(buf[1:], uint64(v.Int64))
		return buf
	case KindString:
		buf := make([]byte, 1+len(v.String))
		buf[0] = byte(KindString)
		copy(buf[1:], v.String)
		return buf
	case KindDouble:
		buf := make([]byte, 9)
		buf[0] = byte(KindDouble)
		binary.NativeEndian.PutUint64(buf[1:], math.Float64bits(v.Double))
		return buf
	case KindUint64:
		buf := make([]byte, 9)
		buf[0] = byte(KindUint64)
		binary.NativeEndian.PutUint64(buf[1:], v.Uint64)
		return buf
	default:
		return nil
	}
}

// writeOrderedParams writes key || valueBytes for every entry in p that
// carries a concrete value, in key order, to h. An entry with Set=false
// contributes nothing at all - not even its key - reproducing the
// metadataHash elision spec.md §9(a) calls out as a likely bug in the
// original implementation that must be preserved.
func writeOrderedParams(h interface{ Write([]byte) (int, error) }, p OrderedParams) {
	for _, kv := range p {
		if !kv.Set {
			continue
		}
		h.Write([]byte(kv.Key))
		h.Write(valueBytes(kv.Value))
	}
}
