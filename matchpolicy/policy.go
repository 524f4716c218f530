// Package matchpolicy encodes the configurable equivalence relation
// (spec.md §4.2) used to decide whether a cached entry satisfies an
// incoming request. The relation is reflexive but neither symmetric
// (Matches walks only the request's tensors, see Matches) nor transitive
// in general (distinct entries may each match a request while
// disagreeing with each other on excluded keys) - callers must treat
// Matches as a first-match predicate for a linear scan, never as a basis
// for a set/map lookup.
package matchpolicy

import (
	"github.com/rpcpool/inferencestore/fingerprint"
)

// ParameterMode selects how a keyed parameter map is compared.
type ParameterMode int

const (
	// Disable matches any pair regardless of parameter contents -
	// equivalent to MatchKeys with an empty key list (spec.md §4.2).
	Disable ParameterMode = iota
	// MatchKeys requires every key in the configured list to agree
	// between the two maps (missing on both sides counts as agreement).
	MatchKeys
	// IgnoreKeys requires every key NOT in the configured list to agree.
	IgnoreKeys
)

// Policy is the configured equivalence relation (spec.md §4.2).
type Policy struct {
	MatchID bool

	ParameterMatching ParameterMode
	ParameterKeys     []string

	// InputParameterKeys maps an input tensor name to the parameter keys
	// ignored (IgnoreKeys-style) when comparing that input's parameters.
	// spec.md only defines a "same" mode for input/output parameter
	// matching (always IgnoreKeys-shaped: match everything not excluded);
	// see Matches for how this is applied.
	InputParameterKeys map[string][]string
	// OutputParameterKeys is the output-side equivalent of
	// InputParameterKeys.
	OutputParameterKeys map[string][]string

	// MatchPrunedOutput, when true, lets an entry whose outputs are a
	// strict superset of the request's outputs still match; the reply
	// sent to the client then drops the extra outputs (wired per
	// spec.md §9(c) - see DESIGN.md's Open-question decisions).
	MatchPrunedOutput bool
}

// keyedMapEqual implements spec.md §4.2's comparison of two ordered
// parameter maps under mode/keys.
func keyedMapEqual(m1, m2 fingerprint.OrderedParams, keys []string, mode ParameterMode) bool {
	switch mode {
	case Disable:
		return true
	case MatchKeys:
		for _, k := range keys {
			v1, ok1 := m1.Get(k)
			v2, ok2 := m2.Get(k)
			if ok1 != ok2 {
				return false
			}
			if ok1 && v1 != v2 {
				return false
			}
		}
		return true
	case IgnoreKeys:
		excluded := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			excluded[k] = struct{}{}
		}
		keySet := unionKeys(m1, m2)
		for k := range keySet {
			if _, skip := excluded[k]; skip {
				continue
			}
			v1, ok1 := m1.Get(k)
			v2, ok2 := m2.Get(k)
			if ok1 != ok2 {
				return false
			}
			if ok1 && v1 != v2 {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func unionKeys(m1, m2 fingerprint.OrderedParams) map[string]struct{} {
	out := m1.Keys()
	for k := range m2.Keys() {
		out[k] = struct{}{}
	}
	return out
}

// inputParamsEqual applies the "same" input-parameter matching mode: keys
// in policy.InputParameterKeys[name] are ignored, everything else must
// agree (IgnoreKeys semantics).
func inputParamsEqual(name string, a, b fingerprint.OrderedParams, policy Policy) bool {
	return keyedMapEqual(a, b, policy.InputParameterKeys[name], IgnoreKeys)
}

func outputParamsEqual(name string, a, b fingerprint.OrderedParams, policy Policy) bool {
	return keyedMapEqual(a, b, policy.OutputParameterKeys[name], IgnoreKeys)
}

// Matches implements spec.md §4.2's equivalence relation between a
// candidate request fingerprint a and a stored entry's fingerprint b.
//
// Per spec.md §9(b), this walks only a's inputs/outputs: an extra input
// present in b but absent from a never causes a mismatch, and an extra
// output in b is accepted only when policy.MatchPrunedOutput is set (see
// the output-count check below). This asymmetry is preserved for
// bug-compatibility with the original implementation (see DESIGN.md).
func Matches(a, b *fingerprint.Fingerprint, policy Policy) bool {
	if a.ModelName != b.ModelName || a.ModelVersion != b.ModelVersion {
		return false
	}
	if a.ContentHash != b.ContentHash {
		return false
	}
	if policy.MatchID && a.ID != b.ID {
		return false
	}
	if !keyedMapEqual(a.Parameters, b.Parameters, policy.ParameterKeys, policy.ParameterMatching) {
		return false
	}

	bInputs := make(map[string]fingerprint.InputTensorMeta, len(b.Inputs))
	for _, in := range b.Inputs {
		bInputs[in.Name] = in
	}
	for _, ain := range a.Inputs {
		bin, ok := bInputs[ain.Name]
		if !ok {
			return false
		}
		if ain.Datatype != bin.Datatype || !shapeEqual(ain.Shape, bin.Shape) {
			return false
		}
		if !inputParamsEqual(ain.Name, ain.Parameters, bin.Parameters, policy) {
			return false
		}
	}

	bOutputs := make(map[string]fingerprint.OutputTensorMeta, len(b.Outputs))
	for _, o := range b.Outputs {
		bOutputs[o.Name] = o
	}
	for _, aout := range a.Outputs {
		bout, ok := bOutputs[aout.Name]
		if !ok {
			return false
		}
		if !outputParamsEqual(aout.Name, aout.Parameters, bout.Parameters, policy) {
			return false
		}
	}
	// By name-containment alone, b may carry outputs a never asked for
	// (spec.md §9(b)'s asymmetry). §9(c) wires MatchPrunedOutput in as
	// the switch that decides whether that is acceptable: when true, b
	// is a legitimate superset the dispatcher will prune on reply; when
	// false, b must offer exactly the outputs a asked for.
	if !policy.MatchPrunedOutput && len(a.Outputs) != len(b.Outputs) {
		return false
	}
	return true
}

func shapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PrunedOutputs returns the subset of entry's outputs whose names were
// actually requested in req, preserving entry's output order. Used by the
// dispatcher when MatchPrunedOutput allowed a superset match, to trim the
// reply down to what the caller asked for.
func PrunedOutputs(req *fingerprint.Fingerprint, entryOutputs []fingerprint.OutputTensor) []fingerprint.OutputTensor {
	if len(req.Outputs) == 0 {
		return entryOutputs
	}
	wanted := make(map[string]struct{}, len(req.Outputs))
	for _, o := range req.Outputs {
		wanted[o.Name] = struct{}{}
	}
	out := make([]fingerprint.OutputTensor, 0, len(entryOutputs))
	for _, o := range entryOutputs {
		if _, ok := wanted[o.Name]; ok {
			out = append(out, o)
		}
	}
	return out
}
