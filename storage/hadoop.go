package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/armon/circbuf"
	"github.com/ohsu-comp-bio/sparkrun/config"
)

// hadoopStderrSize caps how much of the tail of stderr is kept for errors.
const hadoopStderrSize = 4096

// Hadoop provides access to HDFS by running "hadoop fs" commands.
type Hadoop struct {
	bin string
}

// NewHadoop returns a Hadoop backend which runs the configured binary.
func NewHadoop(conf config.HadoopStorage) (*Hadoop, error) {
	if conf.Bin == "" {
		return nil, fmt.Errorf("hadoop: no binary configured")
	}
	return &Hadoop{bin: conf.Bin}, nil
}

// Put uploads the file at path, overwriting url if it exists.
func (h *Hadoop) Put(ctx context.Context, url, path string) error {
	_, err := h.fs(ctx, "-put", "-f", path, url)
	return err
}

// Mkdir creates the directory at url and its parents.
func (h *Hadoop) Mkdir(ctx context.Context, url string) error {
	_, err := h.fs(ctx, "-mkdir", "-p", url)
	return err
}

// Exists returns true if something exists at url.
func (h *Hadoop) Exists(ctx context.Context, url string) (bool, error) {
	_, err := h.fs(ctx, "-test", "-e", url)
	if err == nil {
		return true, nil
	}
	var exit *HadoopExitError
	if errors.As(err, &exit) && exit.Code == 1 {
		return false, nil
	}
	return false, err
}

// Delete removes url recursively. Deleting a missing path succeeds.
func (h *Hadoop) Delete(ctx context.Context, url string) error {
	_, err := h.fs(ctx, "-rm", "-r", "-f", "-skipTrash", url)
	return err
}

func (h *Hadoop) fs(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, h.bin, append([]string{"fs"}, args...)...)
	stderr, err := circbuf.NewBuffer(hadoopStderrSize)
	if err != nil {
		return nil, err
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err = cmd.Run()
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return nil, &HadoopExitError{
			Args:   args,
			Code:   exit.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("hadoop: running %s: %w", h.bin, err)
	}
	return stdout.Bytes(), nil
}

// HadoopExitError is returned when "hadoop fs" exits non-zero.
type HadoopExitError struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *HadoopExitError) Error() string {
	msg := fmt.Sprintf("hadoop fs %s: exit status %d", strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// IsPermanentHadoopError returns true if the hadoop binary is missing or
// isn't executable.
func IsPermanentHadoopError(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission)
}
