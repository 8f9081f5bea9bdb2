package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/metrics"
)

// Composite provides a client for accessing multiple storage systems,
// i.e. for uploading job files to S3, GS, HDFS, local disk, etc.
//
// For a given storage url, the backend is determined by the url scheme,
// e.g. "s3://my-bucket/file" will access the S3 backend. A backend which
// fails with a permanent error is disabled for the lifetime of the Composite.
//
// Composite is safe for concurrent use.
type Composite struct {
	log     *logger.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	schemes map[string]*registration
}

type registration struct {
	name      string
	backend   Backend
	permanent PermanentErrorFunc
	disabled  bool
}

// NewComposite returns a Composite with no backends. The metrics may be nil.
func NewComposite(log *logger.Logger, m *metrics.Metrics) *Composite {
	return &Composite{
		log:     log,
		metrics: m,
		schemes: map[string]*registration{},
	}
}

// Register adds a backend for the given schemes. When a scheme is
// registered more than once, the last registration wins. The schemes of a
// single registration share its disabled state.
//
// A nil permanent func treats every error as transient.
func (c *Composite) Register(name string, b Backend, permanent PermanentErrorFunc, schemes ...string) {
	if permanent == nil {
		permanent = NeverPermanent
	}
	reg := &registration{name: name, backend: b, permanent: permanent}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range schemes {
		c.schemes[s] = reg
	}
}

// Schemes returns the registered schemes, sorted.
func (c *Composite) Schemes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for s := range c.schemes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Disabled returns true if the backend for the given scheme was disabled.
func (c *Composite) Disabled(scheme string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.schemes[scheme]
	return ok && reg.disabled
}

// Put uploads the local file at path to url.
func (c *Composite) Put(ctx context.Context, url, path string) error {
	err := c.do("put", url, func(b Backend) error {
		return b.Put(ctx, url, path)
	})
	if err == nil {
		c.metrics.Upload(Scheme(url))
	}
	return err
}

// Mkdir creates a directory at url, if it doesn't exist.
func (c *Composite) Mkdir(ctx context.Context, url string) error {
	return c.do("mkdir", url, func(b Backend) error {
		return b.Mkdir(ctx, url)
	})
}

// Exists returns true if something exists at url.
func (c *Composite) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := c.do("exists", url, func(b Backend) error {
		var err error
		exists, err = b.Exists(ctx, url)
		return err
	})
	return exists, err
}

// Delete removes everything at url.
func (c *Composite) Delete(ctx context.Context, url string) error {
	return c.do("delete", url, func(b Backend) error {
		return b.Delete(ctx, url)
	})
}

func (c *Composite) lookup(scheme string) (*registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.schemes[scheme]
	if !ok {
		return nil, ErrUnsupportedScheme
	}
	if reg.disabled {
		return nil, ErrBackendUnavailable
	}
	return reg, nil
}

func (c *Composite) do(op, url string, f func(Backend) error) error {
	scheme := Scheme(url)
	reg, err := c.lookup(scheme)
	if err != nil {
		return &SchemeError{Scheme: scheme, URL: url, Err: err}
	}

	err = f(reg.backend)
	if err == nil {
		return nil
	}

	if reg.permanent(err) {
		c.disable(scheme, reg, err)
		return &SchemeError{Scheme: scheme, URL: url, Err: ErrBackendUnavailable, Cause: err}
	}
	return &TransientError{Scheme: scheme, Op: op, URL: url, Err: err}
}

func (c *Composite) disable(scheme string, reg *registration, err error) {
	c.mu.Lock()
	already := reg.disabled
	reg.disabled = true
	c.mu.Unlock()

	if already {
		return
	}
	c.log.Warn("Disabling storage backend after permanent error",
		"backend", reg.name, "scheme", scheme, "error", err)
	c.metrics.BackendDisabled(reg.name)
}
