package storage

import (
	"context"

	"github.com/gammazero/workerpool"
)

// Transfer defines the interface of a single storage upload request.
//
// Transfer events (started, failed, finished) are communicated
// via the Transfer interface.
type Transfer interface {
	URL() string
	Path() string
	Started()
	Finished()
	Failed(err error)
}

// Upload uploads a list of transfers to storage, in parallel. Each
// transfer's destination directory is created first with mkdir; a transfer
// is started only once its directory exists.
//
// Transfer events (started, failed, finished) are communicated
// via the Transfer interface.
func Upload(ctx context.Context, store Storage, transfers []Transfer, parallelLimit int, mkdir func(dir string) error) {
	if parallelLimit < 1 {
		parallelLimit = 1
	}
	wp := workerpool.New(parallelLimit)
	for _, x := range transfers {
		x := x
		wp.Submit(func() {
			if err := mkdir(Dir(x.URL())); err != nil {
				x.Failed(err)
				return
			}
			x.Started()
			if err := store.Put(ctx, x.URL(), x.Path()); err != nil {
				x.Failed(err)
				return
			}
			x.Finished()
		})
	}
	wp.StopWait()
}
