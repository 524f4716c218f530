package entrycodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigFilenameRoundTrip is S7: a model name/version containing
// filesystem-hostile characters (here '#' and '/') survives the round
// trip intact.
func TestConfigFilenameRoundTrip(t *testing.T) {
	cases := []struct{ name, version string }{
		{"simple", "1"},
		{"weird/name", "v#1"},
		{"space name", "2.0"},
	}
	for _, c := range cases {
		filename := ConfigFilename(c.name, c.version)
		gotName, gotVersion, ok := ParseConfigFilename(filename)
		require.True(t, ok, filename)
		assert.Equal(t, c.name, gotName)
		assert.Equal(t, c.version, gotVersion)
	}
}

// TestConfigFilenameLiteralEncoding pins the exact on-disk filename spec.md
// scenario S7 mandates for (name:"a/b", version:"1 2"): PathEscape
// percent-encodes the embedded space as %20, unlike QueryEscape which
// would produce "1+2" and diverge from this literal.
func TestConfigFilenameLiteralEncoding(t *testing.T) {
	got := ConfigFilename("a/b", "1 2")
	assert.Equal(t, "config-a%2Fb#1%202.inferstore", got)
}

func TestWriteNewConfigEntryWriteOnce(t *testing.T) {
	dir := t.TempDir()
	e := ConfigEntry{ModelName: "m", ModelVersion: "1", RawResponse: []byte(`{"ok":true}`)}

	path, err := WriteNewConfigEntry(dir, e)
	require.NoError(t, err)

	_, err = WriteNewConfigEntry(dir, e)
	require.Error(t, err)

	got, err := ReadConfigEntry(path)
	require.NoError(t, err)
	assert.Equal(t, e.ModelName, got.ModelName)
	assert.Equal(t, e.ModelVersion, got.ModelVersion)
	assert.Equal(t, e.RawResponse, got.RawResponse)
}
