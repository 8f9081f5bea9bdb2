package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go"
	"github.com/ohsu-comp-bio/sparkrun/config"
)

// GenericS3Backend provides access to an S3 compatible object store
// through a custom endpoint.
type GenericS3Backend struct {
	client   *minio.Client
	endpoint string
}

// NewGenericS3Backend creates a new GenericS3Backend instance, given an endpoint URL
// and a set of authentication credentials.
func NewGenericS3Backend(conf config.GenericS3Storage) (*GenericS3Backend, error) {
	ssl := strings.HasPrefix(conf.Endpoint, "https")
	endpoint := endpointRE.ReplaceAllString(conf.Endpoint, "$2")
	client, err := minio.NewV2(endpoint, conf.Key, conf.Secret, ssl)
	if err != nil {
		return nil, fmt.Errorf("error creating generic s3 backend: %v", err)
	}
	return &GenericS3Backend{client, endpoint + "/"}, nil
}

// Put uploads the file at path to url.
func (s3 *GenericS3Backend) Put(ctx context.Context, rawurl, path string) error {
	url, err := s3.parse(rawurl)
	if err != nil {
		return err
	}
	_, err = s3.client.FPutObjectWithContext(ctx, url.bucket, url.path, path, minio.PutObjectOptions{})
	return err
}

// Mkdir creates the bucket if it doesn't exist.
func (s3 *GenericS3Backend) Mkdir(ctx context.Context, rawurl string) error {
	url, err := s3.parse(rawurl)
	if err != nil {
		return err
	}
	ok, err := s3.client.BucketExists(url.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s3.client.MakeBucket(url.bucket, "")
}

// Exists returns true if url names an object or a prefix of at least one object.
func (s3 *GenericS3Backend) Exists(ctx context.Context, rawurl string) (bool, error) {
	url, err := s3.parse(rawurl)
	if err != nil {
		return false, err
	}
	if url.path != "" {
		_, err := s3.client.StatObject(url.bucket, url.path, minio.StatObjectOptions{})
		if err == nil {
			return true, nil
		}
		if minio.ToErrorResponse(err).StatusCode != http.StatusNotFound {
			return false, err
		}
	}

	doneCh := make(chan struct{})
	defer close(doneCh)
	for obj := range s3.client.ListObjectsV2(url.bucket, dirPrefix(url.path), true, doneCh) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				return false, nil
			}
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

// Delete removes the object at url and every object under it.
func (s3 *GenericS3Backend) Delete(ctx context.Context, rawurl string) error {
	url, err := s3.parse(rawurl)
	if err != nil {
		return err
	}
	if url.path != "" {
		if err := s3.client.RemoveObject(url.bucket, url.path); err != nil {
			return err
		}
	}

	doneCh := make(chan struct{})
	defer close(doneCh)
	keys := make(chan string)
	var listErr error
	go func() {
		defer close(keys)
		for obj := range s3.client.ListObjectsV2(url.bucket, dirPrefix(url.path), true, doneCh) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case keys <- obj.Key:
			case <-doneCh:
				return
			}
		}
	}()

	for rerr := range s3.client.RemoveObjectsWithContext(ctx, url.bucket, keys) {
		if rerr.Err != nil {
			return fmt.Errorf("removing %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return listErr
}

func (s3 *GenericS3Backend) parse(rawurl string) (*urlparts, error) {
	scheme := Scheme(rawurl)
	if !isS3Scheme(scheme) {
		return nil, &ErrUnsupportedProtocol{"genericS3"}
	}
	path := strings.TrimPrefix(rawurl[len(scheme)+len("://"):], s3.endpoint)
	return parseBucketURL("genericS3", "", path)
}

// IsPermanentGenericS3Error returns true if the object store rejected the
// configured credentials.
func IsPermanentGenericS3Error(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied":
		return true
	}
	return resp.StatusCode == http.StatusForbidden
}
