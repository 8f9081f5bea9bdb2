package storage

import (
	"context"
	"sync"
)

// Fake implements the Backend interface in memory, recording every call.
// This is a testing utility.
type Fake struct {
	mu      sync.Mutex
	Objects map[string]string
	Dirs    map[string]bool
	Calls   []string

	// Err, when set, is returned by every operation instead of its result.
	Err error
}

// NewFake returns an empty Fake backend.
func NewFake() *Fake {
	return &Fake{Objects: map[string]string{}, Dirs: map[string]bool{}}
}

func (f *Fake) record(op, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op+" "+url)
	return f.Err
}

// Put records the local path "uploaded" to url.
func (f *Fake) Put(ctx context.Context, url, path string) error {
	if err := f.record("put", url); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[url] = path
	return nil
}

// Mkdir records a directory.
func (f *Fake) Mkdir(ctx context.Context, url string) error {
	if err := f.record("mkdir", url); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dirs[url] = true
	return nil
}

// Exists checks recorded objects and directories.
func (f *Fake) Exists(ctx context.Context, url string) (bool, error) {
	if err := f.record("exists", url); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, obj := f.Objects[url]
	return obj || f.Dirs[url], nil
}

// Delete forgets the object or directory at url.
func (f *Fake) Delete(ctx context.Context, url string) error {
	if err := f.record("delete", url); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Objects, url)
	delete(f.Dirs, url)
	return nil
}

// NumCalls returns the number of recorded calls.
func (f *Fake) NumCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
