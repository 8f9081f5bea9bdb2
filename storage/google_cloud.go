package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/util/fsutil"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// The gs url protocol
const gsProtocol = "gs://"

// GoogleCloud provides access to an GS object store.
type GoogleCloud struct {
	svc     *storage.Service
	project string
}

// NewGoogleCloud creates an GoogleCloud client instance, give an endpoint URL
// and a set of authentication credentials.
func NewGoogleCloud(conf config.GCSStorage) (*GoogleCloud, error) {
	ctx := context.Background()
	client := &http.Client{}

	if conf.CredentialsFile != "" {
		// Pull the client configuration (e.g. auth) from a given account file.
		// This is likely downloaded from Google Cloud manually via IAM & Admin > Service accounts.
		bytes, rerr := os.ReadFile(conf.CredentialsFile)
		if rerr != nil {
			return nil, rerr
		}

		config, tserr := google.JWTConfigFromJSON(bytes, storage.CloudPlatformScope)
		if tserr != nil {
			return nil, tserr
		}
		client = config.Client(ctx)
	} else {
		// Pull the information (auth and other config) from the environment,
		// which is useful when this code is running in a Google Compute instance.
		defClient, err := google.DefaultClient(ctx, storage.CloudPlatformScope)
		if err == nil {
			client = defClient
		}
	}

	svc, cerr := storage.NewService(ctx, option.WithHTTPClient(client))
	if cerr != nil {
		return nil, cerr
	}
	return &GoogleCloud{svc, conf.ProjectID}, nil
}

// Put copies the file at path to a GS object.
func (gs *GoogleCloud) Put(ctx context.Context, url, path string) error {
	u, err := gs.parse(url)
	if err != nil {
		return err
	}

	reader, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("googleStorage: opening file: %v", err)
	}
	defer reader.Close()

	obj := &storage.Object{Name: u.path}
	_, err = gs.svc.Objects.Insert(u.bucket, obj).Media(fsutil.Reader(ctx, reader)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("googleStorage: uploading object %s: %w", url, err)
	}
	return nil
}

// Mkdir creates the bucket, if it doesn't exist and a project is configured.
func (gs *GoogleCloud) Mkdir(ctx context.Context, url string) error {
	u, err := gs.parse(url)
	if err != nil {
		return err
	}
	_, err = gs.svc.Buckets.Get(u.bucket).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isGoogleNotFound(err) || gs.project == "" {
		return fmt.Errorf("googleStorage: failed to find bucket: %s. error: %w", u.bucket, err)
	}
	_, err = gs.svc.Buckets.Insert(gs.project, &storage.Bucket{Name: u.bucket}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("googleStorage: creating bucket %s: %w", u.bucket, err)
	}
	return nil
}

// Exists returns true if url names an object or a prefix of at least one object.
func (gs *GoogleCloud) Exists(ctx context.Context, url string) (bool, error) {
	u, err := gs.parse(url)
	if err != nil {
		return false, err
	}
	if u.path != "" {
		_, err := gs.svc.Objects.Get(u.bucket, u.path).Context(ctx).Do()
		if err == nil {
			return true, nil
		}
		if !isGoogleNotFound(err) {
			return false, fmt.Errorf("googleStorage: calling stat on object %s: %w", url, err)
		}
	}

	objs, err := gs.svc.Objects.List(u.bucket).Prefix(dirPrefix(u.path)).MaxResults(1).Context(ctx).Do()
	if isGoogleNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("googleStorage: listing %s: %w", url, err)
	}
	return len(objs.Items) > 0, nil
}

// Delete removes the object at url and every object under it.
func (gs *GoogleCloud) Delete(ctx context.Context, url string) error {
	u, err := gs.parse(url)
	if err != nil {
		return err
	}
	if u.path != "" {
		err := gs.svc.Objects.Delete(u.bucket, u.path).Context(ctx).Do()
		if err != nil && !isGoogleNotFound(err) {
			return fmt.Errorf("googleStorage: deleting %s: %w", url, err)
		}
	}

	return gs.svc.Objects.List(u.bucket).Prefix(dirPrefix(u.path)).Pages(ctx,
		func(objs *storage.Objects) error {
			for _, obj := range objs.Items {
				err := gs.svc.Objects.Delete(u.bucket, obj.Name).Context(ctx).Do()
				if err != nil && !isGoogleNotFound(err) {
					return fmt.Errorf("googleStorage: deleting %s%s/%s: %w", gsProtocol, u.bucket, obj.Name, err)
				}
			}
			return nil
		})
}

func (gs *GoogleCloud) parse(rawurl string) (*urlparts, error) {
	return parseBucketURL("googleStorage", gsProtocol, rawurl)
}

func isGoogleNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// IsPermanentGoogleError returns true if err means the credentials are
// missing, can't be exchanged for a token, or are rejected.
func IsPermanentGoogleError(err error) bool {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden
	}
	return false
}
