// Package cachestore is the on-disk cache of record-and-replay entries:
// directory enumeration, write-once insertion, and policy-driven lookup
// over the entries currently loaded in memory.
package cachestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/rpcpool/inferencestore/entrycodec"
	"github.com/rpcpool/inferencestore/fingerprint"
	"github.com/rpcpool/inferencestore/matchpolicy"
)

// InferStore is the directory of cached inference exchanges for every
// model and version (spec.md §4.4). It keeps every loaded entry resident
// in memory for linear first-match scanning: Find never touches disk, so
// there is no read path a byte cache could usefully sit in front of.
type InferStore struct {
	dir string

	mu      sync.RWMutex
	entries []loadedEntry
}

type loadedEntry struct {
	path  string
	entry entrycodec.InferEntry
}

// OpenInferStore prepares dir (creating it if necessary) as an InferStore
// and loads every entry already present.
func OpenInferStore(dir string) (*InferStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cachestore: create store dir %s: %w", dir, err)
	}
	s := &InferStore{dir: dir}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load (re)scans the store directory, parsing every infer entry file into
// memory. It is safe to call again later to pick up entries written by
// another process sharing the same directory.
func (s *InferStore) Load() error {
	lock, err := lockDir(s.dir, false)
	if err != nil {
		return fmt.Errorf("cachestore: lock %s: %w", s.dir, err)
	}
	defer lock.Unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("cachestore: read %s: %w", s.dir, err)
	}

	var loaded []loadedEntry
	var totalSize int64
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".inferstore") || !strings.HasPrefix(de.Name(), "infer-") {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		entry, err := entrycodec.ReadInferEntry(path)
		if err != nil {
			klog.Errorf("cachestore: skipping unreadable entry %s: %v", path, err)
			continue
		}
		if info, err := de.Info(); err == nil {
			totalSize += info.Size()
		}
		loaded = append(loaded, loadedEntry{path: path, entry: entry})
	}

	s.mu.Lock()
	s.entries = loaded
	s.mu.Unlock()

	klog.V(2).Infof("cachestore: loaded %d entries from %s (%s)", len(loaded), s.dir, humanize.Bytes(uint64(totalSize)))
	return nil
}

// Find returns the first loaded entry whose fingerprint matches req under
// policy (spec.md §4.2/§4.4: first-match, not best-match).
func (s *InferStore) Find(req *fingerprint.Fingerprint, policy matchpolicy.Policy) (*fingerprint.Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, le := range s.entries {
		if matchpolicy.Matches(req, &le.entry.Input, policy) {
			resp := le.entry.Output
			return &resp, true
		}
	}
	return nil, false
}

// Insert writes a new entry to disk and, on success, adds it to the
// in-memory index. A duplicate write (another writer already produced the
// exact same content-addressed filename) is reported via inserted=false
// with a nil error: spec.md §9(e) treats this as a benign race, not a
// failure, since by construction the file on disk already holds identical
// content.
func (s *InferStore) Insert(entry entrycodec.InferEntry) (inserted bool, err error) {
	path, err := entrycodec.WriteNewInferEntry(s.dir, entry)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			klog.V(4).Infof("cachestore: duplicate insert suppressed for %s", filepath.Base(path))
			return false, nil
		}
		return false, fmt.Errorf("cachestore: write entry: %w", err)
	}

	s.mu.Lock()
	s.entries = append(s.entries, loadedEntry{path: path, entry: entry})
	s.mu.Unlock()

	return true, nil
}

// Len returns the number of entries currently loaded in memory.
func (s *InferStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
