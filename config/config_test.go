package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/inferencestore/matchpolicy"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "collect", cfg.Mode)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 50051, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:50051", cfg.Server.Addr())
	assert.Equal(t, "http://localhost:8001", cfg.TargetServer.Host)
	assert.Equal(t, "inferencestore", cfg.RequestCollection.Path)
	assert.False(t, cfg.RequestMatching.MatchID)
	assert.Equal(t, "disable", cfg.RequestMatching.ParameterMatching)
	assert.False(t, cfg.RequestMatching.MatchPrunedOutput)
	assert.Same(t, cfg, Get())
}

func TestLoadReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inferencestore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: serve\nserver:\n  host: 127.0.0.1\n  port: 9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
}

// TestLoadAppliesEnvironmentOverride exercises the APP__-prefixed,
// "__"-separated binding spec.md §6 names: APP__SERVER__PORT -> server.port.
func TestLoadAppliesEnvironmentOverride(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	t.Setenv("APP__MODE", "serve")
	t.Setenv("APP__SERVER__PORT", "9100")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestRequestMatchingConfigToPolicy(t *testing.T) {
	m := RequestMatchingConfig{
		MatchID:           true,
		ParameterMatching: "match_keys",
		ParameterKeys:     []string{"a", "b"},
	}
	p := m.ToPolicy()
	assert.True(t, p.MatchID)
	assert.Equal(t, matchpolicy.MatchKeys, p.ParameterMatching)
	assert.Equal(t, []string{"a", "b"}, p.ParameterKeys)
}
