package entrycodec

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/inferencestore/fingerprint"
)

func sampleEntry() InferEntry {
	return InferEntry{
		Input: fingerprint.Fingerprint{
			ModelName:    "m",
			ModelVersion: "1",
			ID:           "r1",
			Inputs: []fingerprint.InputTensorMeta{
				{Name: "x", Datatype: "FP32", Shape: []int64{1, 3}},
			},
			Outputs: []fingerprint.OutputTensorMeta{{Name: "o"}},
		},
		Output: fingerprint.Response{
			Outputs:           []fingerprint.OutputTensor{{Name: "o", Datatype: "FP32", Shape: []int64{1}}},
			RawOutputContents: [][]byte{{9, 9}},
		},
	}
}

// TestInferEntryRoundTrip is P2: decode(encode(x)) == x.
func TestInferEntryRoundTrip(t *testing.T) {
	e := sampleEntry()
	data, err := MarshalInferEntry(e)
	require.NoError(t, err)

	got, err := UnmarshalInferEntry(data)
	require.NoError(t, err)
	assert.Equal(t, e.Input.ModelName, got.Input.ModelName)
	assert.Equal(t, e.Input.Inputs, got.Input.Inputs)
	assert.Equal(t, e.Output.Outputs, got.Output.Outputs)
	assert.Equal(t, e.Output.RawOutputContents, got.Output.RawOutputContents)
}

func TestParseInferFilenameRecoversResponseHash(t *testing.T) {
	e := sampleEntry()
	name := InferFilename(e)

	want := fingerprint.ComputeResponseHash(&e.Output)
	got, ok := ParseInferFilename(name)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestParseInferFilenameRejectsGarbage(t *testing.T) {
	_, ok := ParseInferFilename("not-an-entry.txt")
	assert.False(t, ok)

	_, ok = ParseInferFilename("infer-deadbeef.inferstore")
	assert.False(t, ok)
}

// TestWriteNewInferEntryIsWriteOnce is P3: a second writer for the same
// content-addressed filename must fail with fs.ErrExist, never overwrite.
func TestWriteNewInferEntryIsWriteOnce(t *testing.T) {
	dir := t.TempDir()
	e := sampleEntry()

	path1, err := WriteNewInferEntry(dir, e)
	require.NoError(t, err)

	_, err = WriteNewInferEntry(dir, e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist))

	got, err := ReadInferEntry(path1)
	require.NoError(t, err)
	assert.Equal(t, e.Input.ModelName, got.Input.ModelName)
}
