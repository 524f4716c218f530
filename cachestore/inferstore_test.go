package cachestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/inferencestore/entrycodec"
	"github.com/rpcpool/inferencestore/fingerprint"
	"github.com/rpcpool/inferencestore/matchpolicy"
)

func sampleInferEntry(id string) entrycodec.InferEntry {
	return entrycodec.InferEntry{
		Input: fingerprint.Fingerprint{
			ModelName:    "m",
			ModelVersion: "1",
			ID:           id,
			Outputs:      []fingerprint.OutputTensorMeta{{Name: "o"}},
		},
		Output: fingerprint.Response{
			Outputs: []fingerprint.OutputTensor{{Name: "o", Datatype: "FP32"}},
		},
	}
}

// TestInsertThenFindRoundTrip is P5: a recorded entry is found by a
// structurally equivalent request.
func TestInsertThenFindRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenInferStore(dir)
	require.NoError(t, err)

	entry := sampleInferEntry("r1")
	inserted, err := store.Insert(entry)
	require.NoError(t, err)
	assert.True(t, inserted)

	resp, ok := store.Find(&entry.Input, matchpolicy.Policy{})
	require.True(t, ok)
	assert.Equal(t, entry.Output.Outputs, resp.Outputs)
}

// TestInsertDuplicateIsSuppressed is P3/§9(e): re-inserting the exact same
// entry is a no-op, not an error.
func TestInsertDuplicateIsSuppressed(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenInferStore(dir)
	require.NoError(t, err)

	entry := sampleInferEntry("r1")
	inserted1, err := store.Insert(entry)
	require.NoError(t, err)
	assert.True(t, inserted1)

	inserted2, err := store.Insert(entry)
	require.NoError(t, err)
	assert.False(t, inserted2)
	assert.Equal(t, 1, store.Len())
}

func TestFindMisses(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenInferStore(dir)
	require.NoError(t, err)

	req := sampleInferEntry("r1").Input
	_, ok := store.Find(&req, matchpolicy.Policy{})
	assert.False(t, ok)
}

// TestLoadRecoversPreviouslyWrittenEntries exercises reopening a store
// directory that already has entries on disk (simulating a process
// restart in Collect mode followed by Serve mode).
func TestLoadRecoversPreviouslyWrittenEntries(t *testing.T) {
	dir := t.TempDir()
	store1, err := OpenInferStore(dir)
	require.NoError(t, err)
	entry := sampleInferEntry("r1")
	_, err = store1.Insert(entry)
	require.NoError(t, err)

	store2, err := OpenInferStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, store2.Len())

	resp, ok := store2.Find(&entry.Input, matchpolicy.Policy{})
	require.True(t, ok)
	assert.Equal(t, entry.Output.Outputs, resp.Outputs)
}
