package cachestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"k8s.io/klog/v2"

	"github.com/rpcpool/inferencestore/entrycodec"
)

// ConfigStore is the directory of cached ModelConfig replies, one per
// model/version pair (spec.md scenario S7). Unlike InferStore there is no
// equivalence relation to evaluate: the (name, version) pair is an exact
// key, so the index is a plain map.
type ConfigStore struct {
	dir string

	mu      sync.RWMutex
	entries map[string]entrycodec.ConfigEntry // keyed by ConfigFilename(name, version)
}

// OpenConfigStore prepares dir and loads every config entry already
// present.
func OpenConfigStore(dir string) (*ConfigStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cachestore: create store dir %s: %w", dir, err)
	}
	s := &ConfigStore{dir: dir, entries: make(map[string]entrycodec.ConfigEntry)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Load() error {
	lock, err := lockDir(s.dir, false)
	if err != nil {
		return fmt.Errorf("cachestore: lock %s: %w", s.dir, err)
	}
	defer lock.Unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("cachestore: read %s: %w", s.dir, err)
	}

	loaded := make(map[string]entrycodec.ConfigEntry, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasPrefix(de.Name(), "config-") || !strings.HasSuffix(de.Name(), ".inferstore") {
			continue
		}
		entry, err := entrycodec.ReadConfigEntry(filepath.Join(s.dir, de.Name()))
		if err != nil {
			klog.Errorf("cachestore: skipping unreadable config entry %s: %v", de.Name(), err)
			continue
		}
		loaded[de.Name()] = entry
	}

	s.mu.Lock()
	s.entries = loaded
	s.mu.Unlock()

	klog.V(2).Infof("cachestore: loaded %d config entries from %s", len(loaded), s.dir)
	return nil
}

// Find returns the cached ModelConfig reply for (modelName, modelVersion),
// if one has been recorded.
func (s *ConfigStore) Find(modelName, modelVersion string) (entrycodec.ConfigEntry, bool) {
	key := entrycodec.ConfigFilename(modelName, modelVersion)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Insert records a new ModelConfig reply. As with InferStore.Insert, a
// duplicate write is reported as inserted=false, nil error.
func (s *ConfigStore) Insert(entry entrycodec.ConfigEntry) (inserted bool, err error) {
	_, err = entrycodec.WriteNewConfigEntry(s.dir, entry)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("cachestore: write config entry: %w", err)
	}

	key := entrycodec.ConfigFilename(entry.ModelName, entry.ModelVersion)
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return true, nil
}
