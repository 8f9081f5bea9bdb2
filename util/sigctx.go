package util

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// SignalContext returns a context which is cancelled after delay once any
// of the given signals is received. Calling the returned function releases
// the signal subscription and cancels the context.
func SignalContext(ctx context.Context, delay time.Duration, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	sch := make(chan os.Signal, 1)
	sub, cancel := context.WithCancel(ctx)
	signal.Notify(sch, sigs...)

	go func() {
		defer signal.Stop(sch)
		select {
		case <-sub.Done():
			return
		case <-sch:
			time.Sleep(delay)
			cancel()
		}
	}()

	return sub, cancel
}
