package cachestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/inferencestore/entrycodec"
)

func TestConfigStoreInsertAndFind(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenConfigStore(dir)
	require.NoError(t, err)

	entry := entrycodec.ConfigEntry{ModelName: "m", ModelVersion: "1", RawResponse: []byte(`{"a":1}`)}
	inserted, err := store.Insert(entry)
	require.NoError(t, err)
	assert.True(t, inserted)

	got, ok := store.Find("m", "1")
	require.True(t, ok)
	assert.Equal(t, entry.RawResponse, got.RawResponse)

	_, ok = store.Find("m", "2")
	assert.False(t, ok)
}

func TestConfigStoreReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	store1, err := OpenConfigStore(dir)
	require.NoError(t, err)
	entry := entrycodec.ConfigEntry{ModelName: "m", ModelVersion: "1", RawResponse: []byte(`{"a":1}`)}
	_, err = store1.Insert(entry)
	require.NoError(t, err)

	store2, err := OpenConfigStore(dir)
	require.NoError(t, err)
	got, ok := store2.Find("m", "1")
	require.True(t, ok)
	assert.Equal(t, entry.RawResponse, got.RawResponse)
}
