package storage

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	urllib "net/url"
	"os"
	pathlib "path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/util/fsutil"
)

// FTP provides access to FTP servers. Credentials come from the URL's
// user info, falling back to the configured user.
type FTP struct {
	conf config.FTPStorage
}

// NewFTP creates a new FTP instance.
func NewFTP(conf config.FTPStorage) (*FTP, error) {
	return &FTP{conf}, nil
}

func (b *FTP) connect(ctx context.Context, u *urllib.URL) (*ftp.ServerConn, error) {
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if t := time.Duration(b.conf.Timeout); t > 0 {
		opts = append(opts, ftp.DialWithTimeout(t))
	}
	client, err := ftp.Dial(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("ftpStorage: connecting to server: %w", err)
	}

	user, pass := b.conf.User, b.conf.Password
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	err = client.Login(user, pass)
	if err != nil {
		client.Quit()
		return nil, fmt.Errorf("ftpStorage: logging in: %w", err)
	}
	return client, nil
}

func (b *FTP) session(ctx context.Context, url string, f func(*ftp.ServerConn, string) error) error {
	u, err := b.parse(url)
	if err != nil {
		return err
	}
	client, err := b.connect(ctx, u)
	if err != nil {
		return err
	}
	defer client.Quit()
	return f(client, u.Path)
}

// Put uploads the file at hostPath. The parent directory must exist.
func (b *FTP) Put(ctx context.Context, url string, hostPath string) error {
	reader, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("ftpStorage: opening host file for %q: %v", url, err)
	}
	defer reader.Close()

	return b.session(ctx, url, func(client *ftp.ServerConn, path string) error {
		err := client.Stor(path, fsutil.Reader(ctx, reader))
		if err != nil {
			return fmt.Errorf("ftpStorage: uploading file for %q: %w", url, err)
		}
		return nil
	})
}

// Mkdir creates the directory at url and its parents.
func (b *FTP) Mkdir(ctx context.Context, url string) error {
	return b.session(ctx, url, func(client *ftp.ServerConn, path string) error {
		dir := "/"
		for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
			if part == "" {
				continue
			}
			dir = pathlib.Join(dir, part)
			err := client.MakeDir(dir)
			// servers answer 550 for directories which already exist
			if err != nil && !isFTPCode(err, ftp.StatusFileUnavailable) {
				return fmt.Errorf("ftpStorage: creating directory %q: %w", dir, err)
			}
		}
		return nil
	})
}

// Exists returns true if a file or directory exists at url.
func (b *FTP) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := b.session(ctx, url, func(client *ftp.ServerConn, path string) error {
		dir, name := pathlib.Split(strings.TrimSuffix(path, "/"))
		if name == "" {
			// the root always exists
			exists = true
			return nil
		}
		entries, err := client.List(dir)
		if isFTPCode(err, ftp.StatusFileUnavailable) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ftpStorage: listing path: %w", err)
		}
		for _, e := range entries {
			if e.Name == name {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

// Delete removes the file or directory tree at url.
func (b *FTP) Delete(ctx context.Context, url string) error {
	return b.session(ctx, url, func(client *ftp.ServerConn, path string) error {
		err := client.Delete(path)
		if err == nil {
			return nil
		}
		if !isFTPCode(err, ftp.StatusFileUnavailable) {
			return fmt.Errorf("ftpStorage: deleting %q: %w", path, err)
		}
		err = client.RemoveDirRecur(path)
		if err != nil && !isFTPCode(err, ftp.StatusFileUnavailable) {
			return fmt.Errorf("ftpStorage: deleting directory %q: %w", path, err)
		}
		return nil
	})
}

func (b *FTP) parse(url string) (*urllib.URL, error) {
	if !strings.HasPrefix(url, "ftp://") {
		return nil, &ErrUnsupportedProtocol{"ftpStorage"}
	}
	u, err := urllib.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("ftpStorage: parsing URL: %s", err)
	}
	if u.Host == "" {
		return nil, &ErrInvalidURL{"ftpStorage"}
	}
	return u, nil
}

func isFTPCode(err error, code int) bool {
	var terr *textproto.Error
	return errors.As(err, &terr) && terr.Code == code
}

// IsPermanentFTPError returns true if the server refused the login.
func IsPermanentFTPError(err error) bool {
	return isFTPCode(err, ftp.StatusNotLoggedIn)
}
