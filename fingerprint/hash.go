package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// PartialHashes are the three request-side 8-byte digests that, together
// with the separately computed responseHash, form an InferEntry's on-disk
// filename (spec.md §4.1). The split lets the
// filename alone serve as a content-addressed index key: responseHash is
// recoverable from the filename bytes without opening the file (see
// entrycodec.ParseInferFilename).
type PartialHashes struct {
	InputsHash   [8]byte
	OutputsHash  [8]byte
	MetadataHash [8]byte
}

// writeShape writes each shape dimension as a little-endian int64, per
// spec.md §4.1 ("shape dims little-endian" - the one place the original
// implementation already uses a portable byte order).
func writeShape(h *xxhash.Digest, shape []int64) {
	var buf [8]byte
	for _, dim := range shape {
		binary.LittleEndian.PutUint64(buf[:], uint64(dim))
		h.Write(buf[:])
	}
}

// ComputeInputsHash hashes modelName || modelVersion || contentHash || for
// each input (in order): datatype || name || shape dims (little-endian).
func ComputeInputsHash(fp *Fingerprint) [8]byte {
	h := xxhash.New()
	h.Write([]byte(fp.ModelName))
	h.Write([]byte(fp.ModelVersion))
	h.Write(fp.ContentHash[:])
	for _, in := range fp.Inputs {
		h.Write([]byte(in.Datatype))
		h.Write([]byte(in.Name))
		writeShape(h, in.Shape)
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.Sum64())
	return out
}

// ComputeOutputsHash hashes the names of each requested output, in order.
func ComputeOutputsHash(fp *Fingerprint) [8]byte {
	h := xxhash.New()
	for _, o := range fp.Outputs {
		h.Write([]byte(o.Name))
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.Sum64())
	return out
}

// ComputeMetadataHash hashes id, the top-level parameters, and every
// input's and output's parameters, all key-ordered. Per spec.md §9(a),
// absent parameter values contribute nothing at all (writeOrderedParams
// skips Set=false entries) - preserved for bug-compatibility.
func ComputeMetadataHash(fp *Fingerprint) [8]byte {
	h := xxhash.New()
	h.Write([]byte(fp.ID))
	writeOrderedParams(h, fp.Parameters)
	for _, in := range fp.Inputs {
		writeOrderedParams(h, in.Parameters)
	}
	for _, o := range fp.Outputs {
		writeOrderedParams(h, o.Parameters)
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.Sum64())
	return out
}

// ComputeResponseHash hashes a response's parameters, each output tensor
// (datatype, name, shape dims little-endian, its parameters key-ordered),
// and the raw output buffers in order.
func ComputeResponseHash(resp *Response) [8]byte {
	h := xxhash.New()
	writeOrderedParams(h, resp.Parameters)
	for _, o := range resp.Outputs {
		h.Write([]byte(o.Datatype))
		h.Write([]byte(o.Name))
		writeShape(h, o.Shape)
		writeOrderedParams(h, o.Parameters)
	}
	for _, buf := range resp.RawOutputContents {
		h.Write(buf)
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.Sum64())
	return out
}

// ComputeContentHash hashes the concatenation, in order, of raw input
// tensor byte buffers. When raw buffers are absent for an input (the
// request supplied typed contents instead), that input's bytes are
// produced by encoding its typed values through the same valueBytes
// discriminated scheme used for parameters - the canonical form spec.md
// §3 leaves open, resolved here for determinism (see DESIGN.md).
func ComputeContentHash(rawInputContents [][]byte, typedFallback func(index int) []Value) [32]byte {
	hasher := sha256.New()
	for i, buf := range rawInputContents {
		if buf != nil {
			hasher.Write(buf)
			continue
		}
		if typedFallback != nil {
			for _, v := range typedFallback(i) {
				hasher.Write(valueBytes(v))
			}
		}
	}
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// Filename returns the 84-byte composite InferEntry filename for the given
// fingerprint and response hashes (spec.md §4.1): it does not itself
// compute the hashes so that callers who already have a PartialHashes and
// a separately computed responseHash (e.g. when recovering one from an
// existing filename) do not need a Fingerprint/Response pair in hand.
func Filename(ph PartialHashes, responseHash [8]byte) string {
	const prefix = "infer-"
	const suffix = ".inferstore"
	buf := make([]byte, 0, 84)
	buf = append(buf, prefix...)
	buf = appendHex(buf, ph.InputsHash[:])
	buf = append(buf, '#')
	buf = appendHex(buf, ph.OutputsHash[:])
	buf = append(buf, '#')
	buf = appendHex(buf, ph.MetadataHash[:])
	buf = append(buf, '#')
	buf = appendHex(buf, responseHash[:])
	buf = append(buf, suffix...)
	return string(buf)
}

func appendHex(dst []byte, src []byte) []byte {
	enc := make([]byte, hex.EncodedLen(len(src)))
	hex.Encode(enc, src)
	return append(dst, enc...)
}
