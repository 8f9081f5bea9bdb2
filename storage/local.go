package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/util/fsutil"
)

// Local provides access to the local filesystem, for plain paths and
// "file://" URLs.
type Local struct{}

// NewLocal returns a Local backend.
func NewLocal(conf config.LocalStorage) (*Local, error) {
	return &Local{}, nil
}

// Put copies the file at path to url, creating parent directories.
func (local *Local) Put(ctx context.Context, url, path string) error {
	target := getPath(url)
	if err := fsutil.EnsurePath(target); err != nil {
		return err
	}
	return copyFile(ctx, path, target)
}

// Mkdir creates the directory at url and any parents.
func (local *Local) Mkdir(ctx context.Context, url string) error {
	return fsutil.EnsureDir(getPath(url))
}

// Exists returns true if a file or directory exists at url.
func (local *Local) Exists(ctx context.Context, url string) (bool, error) {
	_, err := os.Stat(getPath(url))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes url and everything under it.
func (local *Local) Delete(ctx context.Context, url string) error {
	return os.RemoveAll(getPath(url))
}

func getPath(rawurl string) string {
	return strings.TrimPrefix(rawurl, "file://")
}

// Copies file source to destination dest.
func copyFile(ctx context.Context, source string, dest string) error {
	same, err := sameFile(source, dest)
	if err != nil {
		return err
	}
	if same {
		return nil
	}
	sf, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source file for copying: %v", err)
	}
	defer sf.Close()

	df, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0775)
	if err != nil {
		return fmt.Errorf("failed to create dest file for copying: %v", err)
	}

	_, copyErr := io.Copy(df, fsutil.Reader(ctx, sf))
	closeErr := df.Close()
	if copyErr != nil {
		return fmt.Errorf("copying file: %v", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing file: %v", closeErr)
	}
	return nil
}

func sameFile(source string, dest string) (bool, error) {
	sfi, err := os.Stat(source)
	if err != nil {
		return false, fmt.Errorf("failed to stat src file: %v", err)
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return false, err
	}
	dfi, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat dest file: %v", err)
	}
	return os.SameFile(sfi, dfi), nil
}
