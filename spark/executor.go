package spark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/ohsu-comp-bio/sparkrun/job"
	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/metrics"
)

// Executor runs step groups with spark-submit, one at a time.
type Executor struct {
	Args    *ArgBuilder
	Log     *logger.Logger
	Metrics *metrics.Metrics
	// Receives records parsed from spark-submit's stdout and stderr.
	// Defaults to logging each record.
	Handler RecordHandler
	// How long to wait for output after spark-submit exits or is cancelled.
	// Processes it leaves behind can hold its output open.
	// Defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// DefaultWaitDelay is the default Executor.WaitDelay.
const DefaultWaitDelay = 10 * time.Second

// RunAll runs the groups in order. The first failure stops the run; steps
// already completed keep their output.
func (e *Executor) RunAll(ctx context.Context, groups []job.Group) error {
	numSteps := e.Args.Job.NumSteps()
	for _, g := range groups {
		e.Log.Info(fmt.Sprintf("Running %s of %d", g.Describe(), numSteps))
		if err := e.Run(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// Run submits one group and blocks until spark-submit exits. A non-zero
// exit is returned as a *StepFailed.
func (e *Executor) Run(ctx context.Context, g job.Group) error {
	argv := e.Args.Args(g)
	e.Log.Debug("Running spark-submit", "args", argv)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = e.Args.Env()
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	// exec copies the output into the pipes until the streams close, and
	// WaitDelay bounds that copy, so Wait returns once spark-submit exits.
	handle := e.handler()
	var wg sync.WaitGroup
	var writers []*io.PipeWriter
	for _, out := range []*io.Writer{&cmd.Stdout, &cmd.Stderr} {
		pr, pw := io.Pipe()
		*out = pw
		writers = append(writers, pw)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ParseRecords(pr, handle); err != nil {
				e.Log.Error("Reading spark-submit output", err)
			}
			io.Copy(io.Discard, pr)
		}()
	}
	done := func() {
		for _, pw := range writers {
			pw.Close()
		}
		wg.Wait()
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		done()
		return fmt.Errorf("starting %s: %w", argv[0], err)
	}
	err := cmd.Wait()
	done()

	if errors.Is(err, exec.ErrWaitDelay) {
		e.Log.Warn("spark-submit exited but its output was left open")
		err = nil
	}
	e.Metrics.Submission(err == nil, time.Since(start))
	if err == nil {
		return nil
	}

	var exit *exec.ExitError
	if !errors.As(err, &exit) {
		return fmt.Errorf("waiting for %s: %w", argv[0], err)
	}
	return &StepFailed{
		Reason:      exitReason(exit),
		StepNum:     g.StepNum,
		LastStepNum: g.LastStepNum(),
		NumSteps:    e.Args.Job.NumSteps(),
	}
}

// handler returns the record handler, serialized since both output
// streams feed it.
func (e *Executor) handler() RecordHandler {
	h := e.Handler
	if h == nil {
		h = LogRecords(e.Log)
	}
	var mu sync.Mutex
	return func(rec Record) {
		mu.Lock()
		defer mu.Unlock()
		h(rec)
	}
}

func exitReason(exit *exec.ExitError) string {
	if code := exit.ExitCode(); code >= 0 {
		return fmt.Sprintf("command exited with status %d", code)
	}
	return fmt.Sprintf("command was terminated: %v", exit)
}
