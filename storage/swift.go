package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/units"
	"github.com/ncw/swift"
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/util/fsutil"
)

const swiftProtocol = "swift://"

// SwiftBackend provides access to an sw object store.
type SwiftBackend struct {
	conn      *swift.Connection
	chunkSize int64
}

// NewSwiftBackend creates an SwiftBackend client instance, give an endpoint URL
// and a set of authentication credentials.
func NewSwiftBackend(conf config.SwiftStorage) (*SwiftBackend, error) {
	conn := &swift.Connection{
		UserName: conf.UserName,
		ApiKey:   conf.Password,
		AuthUrl:  conf.AuthURL,
		Tenant:   conf.TenantName,
		TenantId: conf.TenantID,
		Region:   conf.RegionName,
	}

	// Read environment variables and apply them to the Connection structure.
	// Won't overwrite any parameters which are already set in the Connection struct.
	err := conn.ApplyEnvironment()
	if err != nil {
		return nil, err
	}
	return &SwiftBackend{conn, swiftChunkSize(conf.ChunkSizeBytes)}, nil
}

// swiftChunkSize clamps the configured chunk size. Unset or small values
// use 500 MB.
func swiftChunkSize(configured int64) int64 {
	switch {
	case configured < int64(10*units.MB):
		return int64(500 * units.MB)
	case configured > int64(5*units.GB):
		return int64(5 * units.GB)
	default:
		return configured
	}
}

// Put uploads the file at path. Files of 5 GB or more are uploaded as
// static large objects.
func (sw *SwiftBackend) Put(ctx context.Context, rawurl, path string) (err error) {
	url, err := sw.parse(rawurl)
	if err != nil {
		return err
	}

	reader, err := os.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	var writer io.WriteCloser
	var checkHash = true
	var hash string
	var contentType string
	var headers swift.Headers

	if fsutil.FileSize(path) < int64(5*units.GB) {
		writer, err = sw.conn.ObjectCreate(url.bucket, url.path, checkHash, hash, contentType, headers)
	} else {
		writer, err = sw.conn.StaticLargeObjectCreateFile(&swift.LargeObjectOpts{
			Container:  url.bucket,
			ObjectName: url.path,
			CheckHash:  checkHash,
			Hash:       hash,
			Headers:    headers,
			ChunkSize:  sw.chunkSize,
		})
	}
	if err != nil {
		return err
	}
	defer func() {
		cerr := writer.Close()
		if cerr != nil && err == nil {
			err = cerr
		} else if cerr != nil {
			err = fmt.Errorf("%v; %v", err, cerr)
		}
	}()

	_, err = io.Copy(writer, fsutil.Reader(ctx, reader))
	return err
}

// Mkdir creates the container. Creating an existing container succeeds.
func (sw *SwiftBackend) Mkdir(ctx context.Context, rawurl string) error {
	url, err := sw.parse(rawurl)
	if err != nil {
		return err
	}
	return sw.conn.ContainerCreate(url.bucket, nil)
}

// Exists returns true if url names an object or a prefix of at least one object.
func (sw *SwiftBackend) Exists(ctx context.Context, rawurl string) (bool, error) {
	url, err := sw.parse(rawurl)
	if err != nil {
		return false, err
	}
	if url.path != "" {
		_, _, err := sw.conn.Object(url.bucket, url.path)
		if err == nil {
			return true, nil
		}
		if err == swift.ContainerNotFound {
			return false, nil
		}
		if err != swift.ObjectNotFound {
			return false, err
		}
	}

	names, err := sw.conn.ObjectNames(url.bucket, &swift.ObjectsOpts{
		Prefix: dirPrefix(url.path),
		Limit:  1,
	})
	if err == swift.ContainerNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// Delete removes the object at url and every object under it.
func (sw *SwiftBackend) Delete(ctx context.Context, rawurl string) error {
	url, err := sw.parse(rawurl)
	if err != nil {
		return err
	}
	if url.path != "" {
		err := sw.conn.ObjectDelete(url.bucket, url.path)
		if err != nil && err != swift.ObjectNotFound {
			return err
		}
	}

	names, err := sw.conn.ObjectNamesAll(url.bucket, &swift.ObjectsOpts{
		Prefix: dirPrefix(url.path),
	})
	if err != nil {
		return fmt.Errorf("listing objects by prefix: %s", err)
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := sw.conn.ObjectDelete(url.bucket, name)
		if err != nil && err != swift.ObjectNotFound {
			return fmt.Errorf("deleting object %s: %w", name, err)
		}
	}
	return nil
}

func (sw *SwiftBackend) parse(rawurl string) (*urlparts, error) {
	return parseBucketURL("swift", swiftProtocol, rawurl)
}

// IsPermanentSwiftError returns true if the credentials were rejected.
func IsPermanentSwiftError(err error) bool {
	return errors.Is(err, swift.AuthorizationFailed) || errors.Is(err, swift.Forbidden)
}
