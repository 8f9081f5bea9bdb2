package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir ensures a directory exists.
func EnsureDir(p string) error {
	s, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(p, 0775)
		}
		return err
	}
	if !s.IsDir() {
		return fmt.Errorf("file exists but is not a directory: %s", p)
	}
	return nil
}

// EnsurePath ensures a directory exists, given a file path. This calls path.Dir(p)
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}

// FileSize returns the size of the file in bytes, or 0 if the file can't be stat'ed.
func FileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

// SymlinkOrCopy creates a symlink at dest pointing to source. If the
// platform refuses the symlink, the file is copied instead.
func SymlinkOrCopy(source, dest string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	if err := EnsurePath(dest); err != nil {
		return err
	}
	if err := os.Symlink(abs, dest); err == nil {
		return nil
	}
	return CopyFile(abs, dest)
}

// CopyFile copies the regular file source to dest, creating or truncating dest.
func CopyFile(source, dest string) error {
	sf, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source file for copying: %v", err)
	}
	defer sf.Close()

	df, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0775)
	if err != nil {
		return fmt.Errorf("failed to create dest file for copying: %v", err)
	}

	_, copyErr := io.Copy(df, sf)
	closeErr := df.Close()
	if copyErr != nil {
		return fmt.Errorf("copying file: %v", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing file: %v", closeErr)
	}
	return nil
}
