package storage

import (
	"context"
	"time"

	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/util"
)

// Retrier wraps a Storage with logic which retries transient errors,
// with a configurable backoff strategy. Permanent errors and unsupported
// schemes are returned immediately.
type Retrier struct {
	*util.Retrier
	Backend Storage
}

// NewRetrier wraps store, trying each operation at most maxTries times.
func NewRetrier(store Storage, maxTries int, log *logger.Logger) *Retrier {
	r := util.NewRetrier()
	r.MaxTries = maxTries
	r.InitialInterval = time.Second
	r.MaxInterval = time.Minute
	r.ShouldRetry = IsTransient
	r.Notify = func(err error, d time.Duration) {
		log.Warn("Retrying storage operation", "error", err, "sleep", d)
	}
	return &Retrier{Retrier: r, Backend: store}
}

// Put uploads the file at path to url.
func (r *Retrier) Put(ctx context.Context, url, path string) error {
	return r.Retry(ctx, func() error {
		return r.Backend.Put(ctx, url, path)
	})
}

// Mkdir creates a directory at url.
func (r *Retrier) Mkdir(ctx context.Context, url string) error {
	return r.Retry(ctx, func() error {
		return r.Backend.Mkdir(ctx, url)
	})
}

// Exists returns true if something exists at url.
func (r *Retrier) Exists(ctx context.Context, url string) (ok bool, err error) {
	err = r.Retry(ctx, func() error {
		ok, err = r.Backend.Exists(ctx, url)
		return err
	})
	return
}

// Delete removes everything at url.
func (r *Retrier) Delete(ctx context.Context, url string) error {
	return r.Retry(ctx, func() error {
		return r.Backend.Delete(ctx, url)
	})
}
