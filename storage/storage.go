// Package storage stages files across the storage systems a cluster can
// read from (local disk, HDFS, S3, GS, Swift, FTP), dispatching each
// operation to a backend by URL scheme.
package storage

import (
	"context"
	"net/url"
	"strings"
)

// Backend performs raw I/O for one storage system.
type Backend interface {
	// Put uploads the local file at path to url.
	Put(ctx context.Context, url, path string) error
	// Mkdir creates the directory at url, if it doesn't already exist.
	// Object stores have no directories and may do nothing.
	Mkdir(ctx context.Context, url string) error
	// Exists returns true if an object or directory exists at url.
	Exists(ctx context.Context, url string) (bool, error)
	// Delete removes the object at url, and recursively everything under it.
	Delete(ctx context.Context, url string) error
}

// Storage is implemented by Composite and by wrappers around it.
type Storage interface {
	Backend
}

// PermanentErrorFunc classifies a backend error as permanent, meaning
// a retry within the same run won't help (bad credentials, missing binaries,
// bad configuration).
type PermanentErrorFunc func(error) bool

// NeverPermanent treats every error as transient.
func NeverPermanent(error) bool {
	return false
}

// localScheme is the scheme used for plain filesystem paths.
const localScheme = "file"

// Scheme returns the scheme of a storage URL. Plain paths are "file".
func Scheme(rawurl string) string {
	i := strings.Index(rawurl, "://")
	if i <= 0 {
		return localScheme
	}
	u, err := url.Parse(rawurl)
	if err != nil || u.Scheme == "" {
		return strings.ToLower(rawurl[:i])
	}
	return strings.ToLower(u.Scheme)
}

// IsURI returns true if rawurl has a scheme, i.e. it's not a plain path.
func IsURI(rawurl string) bool {
	return strings.Index(rawurl, "://") > 0
}

// Join joins a directory URL with a relative path.
func Join(dir, name string) string {
	return strings.TrimSuffix(dir, "/") + "/" + strings.TrimPrefix(name, "/")
}

// Dir returns the parent directory of a URL or path.
func Dir(rawurl string) string {
	trimmed := strings.TrimSuffix(rawurl, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return "."
	}
	if j := strings.Index(trimmed, "://"); j >= 0 {
		switch {
		case i < j+3:
			// no path under the scheme and host part
			return trimmed
		case i == j+3:
			// "proto:///name" has the root as its parent
			return trimmed[:i+1]
		}
	}
	if i == 0 {
		return "/"
	}
	return trimmed[:i]
}

type urlparts struct {
	bucket string
	path   string
}

// parseBucketURL splits "proto://bucket/path" into its bucket and path.
func parseBucketURL(backend, protocol, rawurl string) (*urlparts, error) {
	if !strings.HasPrefix(rawurl, protocol) {
		return nil, &ErrUnsupportedProtocol{backend}
	}
	path := strings.TrimPrefix(rawurl, protocol)
	if path == "" {
		return nil, &ErrInvalidURL{backend}
	}
	split := strings.SplitN(path, "/", 2)
	u := &urlparts{bucket: split[0]}
	if len(split) == 2 {
		u.path = split[1]
	}
	if u.bucket == "" {
		return nil, &ErrInvalidURL{backend}
	}
	return u, nil
}
