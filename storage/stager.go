package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/ohsu-comp-bio/sparkrun/logger"
)

// Stager assigns local files a URI under a job scoped prefix and uploads
// them before submission. Each file is named after its basename; a
// basename used by an earlier file gets a numeric suffix ("data-1.csv").
//
// A Stager with a local prefix passes paths through unchanged and never
// uploads, since the cluster reads the local filesystem directly.
//
// Stager is safe for concurrent use.
type Stager struct {
	prefix string

	mu     sync.Mutex
	uris   map[string]string
	order  []string
	names  map[string]bool
	staged map[string]bool
}

// NewStager returns a Stager which puts files under prefix. A prefix which
// is not a URI makes a pass-through Stager.
func NewStager(prefix string) *Stager {
	return &Stager{
		prefix: prefix,
		uris:   map[string]string{},
		names:  map[string]bool{},
		staged: map[string]bool{},
	}
}

// Prefix returns the directory files are staged under.
func (s *Stager) Prefix() string {
	return s.prefix
}

// Passthrough returns true if the Stager never uploads anything.
func (s *Stager) Passthrough() bool {
	return !IsURI(s.prefix)
}

// StageIfLocal records path for upload and returns the URI it will have.
// URIs, and every path of a pass-through Stager, are returned unchanged.
// Adding the same path again returns the same URI.
func (s *Stager) StageIfLocal(path string) string {
	if IsURI(path) || s.Passthrough() {
		return path
	}
	key := absPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if uri, ok := s.uris[key]; ok {
		return uri
	}
	uri := Join(s.prefix, s.uniqueName(filepath.Base(key)))
	s.uris[key] = uri
	s.order = append(s.order, key)
	return uri
}

// URI returns the URI path was staged as. Paths never passed to
// StageIfLocal are returned as-is, with false.
func (s *Stager) URI(path string) (string, bool) {
	if IsURI(path) || s.Passthrough() {
		return path, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uri, ok := s.uris[absPath(path)]
	if !ok {
		return path, false
	}
	return uri, true
}

// Files returns the (local path, URI) pairs in the order they were added.
func (s *Stager) Files() []StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StagedFile, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, StagedFile{Path: p, URI: s.uris[p]})
	}
	return out
}

// StagedFile pairs a local path with the URI it is uploaded to.
type StagedFile struct {
	Path string
	URI  string
}

// uniqueName must be called with s.mu held.
func (s *Stager) uniqueName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfiles like ".bashrc" have no extension
		stem, ext = name, ""
	}
	unique := name
	for i := 1; s.names[unique]; i++ {
		unique = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	s.names[unique] = true
	return unique
}

// StageAll uploads every recorded file which hasn't been uploaded yet, in
// the order the files were added. Destination directories are created
// once each. With parallelism above one, uploads run concurrently and
// every failure is reported; otherwise the first failure stops staging.
func (s *Stager) StageAll(ctx context.Context, store Storage, log *logger.Logger, parallelism int) error {
	if s.Passthrough() {
		return nil
	}

	var pending []StagedFile
	for _, f := range s.Files() {
		if !s.isStaged(f.Path) {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	mkdir := s.mkdirOnce(ctx, store)

	if parallelism <= 1 {
		for _, f := range pending {
			if err := mkdir(Dir(f.URI)); err != nil {
				return err
			}
			log.Info("Uploading", "src", f.Path, "dest", f.URI)
			if err := store.Put(ctx, f.URI, f.Path); err != nil {
				return fmt.Errorf("uploading %s: %w", f.Path, err)
			}
			s.markStaged(f.Path)
		}
		return nil
	}

	var mu sync.Mutex
	var errs *multierror.Error
	transfers := make([]Transfer, 0, len(pending))
	for _, f := range pending {
		transfers = append(transfers, &upload{
			file: f,
			log:  log,
			done: s.markStaged,
			fail: func(path string, err error) {
				mu.Lock()
				defer mu.Unlock()
				errs = multierror.Append(errs, fmt.Errorf("uploading %s: %w", path, err))
			},
		})
	}
	Upload(ctx, store, transfers, parallelism, mkdir)
	return errs.ErrorOrNil()
}

// mkdirOnce returns a func which creates each directory at most once.
// A failed mkdir is not remembered, so another file may try again.
func (s *Stager) mkdirOnce(ctx context.Context, store Storage) func(string) error {
	var mu sync.Mutex
	made := map[string]bool{}
	return func(dir string) error {
		mu.Lock()
		defer mu.Unlock()
		if made[dir] {
			return nil
		}
		if err := store.Mkdir(ctx, dir); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		made[dir] = true
		return nil
	}
}

func (s *Stager) isStaged(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged[path]
}

func (s *Stager) markStaged(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[path] = true
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// upload implements Transfer for one staged file.
type upload struct {
	file StagedFile
	log  *logger.Logger
	done func(path string)
	fail func(path string, err error)
}

func (u *upload) URL() string  { return u.file.URI }
func (u *upload) Path() string { return u.file.Path }

func (u *upload) Started() {
	u.log.Info("Uploading", "src", u.file.Path, "dest", u.file.URI)
}

func (u *upload) Finished() {
	u.done(u.file.Path)
}

func (u *upload) Failed(err error) {
	u.fail(u.file.Path, err)
}
