package cachestore

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// dirLock is an advisory lock on a sidecar ".lock" file inside a store
// directory. Entry files themselves never need locking (they are
// write-once and created with O_EXCL). Load's directory scan takes a
// shared flock on it; being advisory, that lock only waits out another
// process holding an exclusive flock on the same file, and nothing in this
// package takes one.
type dirLock struct {
	f *os.File
}

func lockDir(dir string, exclusive bool) (*dirLock, error) {
	f, err := os.OpenFile(filepath.Join(dir, ".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, err
	}
	return &dirLock{f: f}, nil
}

func (l *dirLock) Unlock() error {
	defer l.f.Close()
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
