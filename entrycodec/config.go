package entrycodec

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ConfigEntry is the on-disk representation of a cached ModelConfig reply.
// The reply payload itself is kept as opaque JSON bytes so this package
// doesn't need to depend on the wire message types; callers decode
// RawResponse with whatever type they expect.
type ConfigEntry struct {
	ModelName    string
	ModelVersion string
	RawResponse  []byte
}

const (
	configPrefix = "config-"
	configSuffix = ".inferstore"
)

// ConfigFilename builds the filename a ConfigEntry is stored under:
// config-<url-encoded name>#<url-encoded version>.inferstore (spec.md
// scenario S7). PathEscape (not QueryEscape) percent-encodes '#', '/', and
// space alike - QueryEscape's "+" for space would diverge from the literal
// on-disk filename spec.md's scenario S7 requires.
func ConfigFilename(modelName, modelVersion string) string {
	return configPrefix + url.PathEscape(modelName) + "#" + url.PathEscape(modelVersion) + configSuffix
}

// ParseConfigFilename recovers the model name and version encoded in name.
func ParseConfigFilename(name string) (modelName, modelVersion string, ok bool) {
	if !strings.HasPrefix(name, configPrefix) || !strings.HasSuffix(name, configSuffix) {
		return "", "", false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, configPrefix), configSuffix)
	parts := strings.SplitN(body, "#", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name1, err1 := url.PathUnescape(parts[0])
	name2, err2 := url.PathUnescape(parts[1])
	if err1 != nil || err2 != nil {
		return "", "", false
	}
	return name1, name2, true
}

// WriteNewConfigEntry writes e to dir under its canonical filename,
// following the same create-exclusive, write-once semantics as
// WriteNewInferEntry.
func WriteNewConfigEntry(dir string, e ConfigEntry) (path string, err error) {
	name := ConfigFilename(e.ModelName, e.ModelVersion)
	path = filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer f.Close()

	if _, err := f.Write(e.RawResponse); err != nil {
		return path, err
	}
	if err := f.Sync(); err != nil {
		return path, err
	}
	return path, nil
}

// ReadConfigEntry loads the config entry at path, recovering the model
// name/version from the filename rather than the payload.
func ReadConfigEntry(path string) (ConfigEntry, error) {
	modelName, modelVersion, ok := ParseConfigFilename(filepath.Base(path))
	if !ok {
		return ConfigEntry{}, fmt.Errorf("entrycodec: %q is not a config entry filename", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigEntry{}, err
	}
	return ConfigEntry{ModelName: modelName, ModelVersion: modelVersion, RawResponse: data}, nil
}
