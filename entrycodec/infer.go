// Package entrycodec serializes cache entries to and from the on-disk
// format spec.md §4.3 describes, and derives/parses the content-addressed
// filenames entries live under.
package entrycodec

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/rpcpool/inferencestore/fingerprint"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InferEntry is the on-disk representation of a cached inference exchange:
// the request fingerprint that earned the cache hit and the response that
// was served for it.
type InferEntry struct {
	Input  fingerprint.Fingerprint `json:"input"`
	Output fingerprint.Response    `json:"output"`
}

// MarshalInferEntry serializes e to its on-disk JSON form.
func MarshalInferEntry(e InferEntry) ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalInferEntry parses data produced by MarshalInferEntry.
func UnmarshalInferEntry(data []byte) (InferEntry, error) {
	var e InferEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return InferEntry{}, fmt.Errorf("entrycodec: decode infer entry: %w", err)
	}
	return e, nil
}

// InferFilename returns the composite filename e must be stored under
// (spec.md §4.1, P1).
func InferFilename(e InferEntry) string {
	return fingerprint.EntryFilename(&e.Input, &e.Output)
}

const (
	inferPrefix = "infer-"
	inferSuffix = ".inferstore"
	hashHexLen  = 16 // 8 bytes, hex-encoded
)

// ParseInferFilename recovers the responseHash partial hash directly from
// an InferEntry filename's fourth and last hex block (bytes 57..73, P7),
// without needing to open or decode the file it names. It returns ok=false
// for any name that doesn't match the expected 84-byte composite shape.
func ParseInferFilename(name string) (responseHash [8]byte, ok bool) {
	if len(name) != 84 || !strings.HasPrefix(name, inferPrefix) || !strings.HasSuffix(name, inferSuffix) {
		return responseHash, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, inferPrefix), inferSuffix)
	parts := strings.Split(body, "#")
	if len(parts) != 4 {
		return responseHash, false
	}
	decoded, err := hex.DecodeString(parts[3])
	if err != nil || len(decoded) != 8 {
		return responseHash, false
	}
	copy(responseHash[:], decoded)
	return responseHash, true
}

// WriteNewInferEntry writes e to dir under its canonical filename using a
// create-exclusive open (spec.md §4.3: entries are write-once; a second
// writer racing to create the same filename must fail rather than
// overwrite). The file is synced before this call returns; the filename
// itself is visible in a directory listing from the moment it is created,
// before its content is written.
//
// Callers should treat a returned error satisfying errors.Is(err,
// fs.ErrExist) as "another writer already produced this exact entry", not
// as a failure: the content is, by construction, identical to what this
// call would have written (spec.md §9(e)).
func WriteNewInferEntry(dir string, e InferEntry) (path string, err error) {
	data, err := MarshalInferEntry(e)
	if err != nil {
		return "", err
	}
	name := InferFilename(e)
	path = filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return path, err
	}
	if err := f.Sync(); err != nil {
		return path, err
	}
	return path, nil
}

// ReadInferEntry loads and decodes the entry at path.
func ReadInferEntry(path string) (InferEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InferEntry{}, err
	}
	return UnmarshalInferEntry(data)
}
