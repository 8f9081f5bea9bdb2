package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/ohsu-comp-bio/sparkrun/config"
)

var endpointRE = regexp.MustCompile("^(http[s]?://)?(.[^/]+)(.+)?$")
var amazonHostRE = regexp.MustCompile(`^s3.*\.amazonaws\.com/`)

// s3Schemes are the URL schemes handled by the S3 backends.
var s3Schemes = []string{"s3", "s3a", "s3n"}

// AmazonS3Backend provides access to an S3 object store.
type AmazonS3Backend struct {
	sess     *session.Session
	endpoint string
}

// NewAmazonS3Backend creates an AmazonS3Backend session instance
func NewAmazonS3Backend(conf config.AmazonS3Storage) (*AmazonS3Backend, error) {
	sess, err := newAWSSession(conf)
	if err != nil {
		return nil, fmt.Errorf("error creating amazon s3 backend: %v", err)
	}

	var endpoint string
	if conf.Endpoint != "" {
		endpoint = endpointRE.ReplaceAllString(conf.Endpoint, "$2/")
	}
	return &AmazonS3Backend{sess, endpoint}, nil
}

func newAWSSession(conf config.AmazonS3Storage) (*session.Session, error) {
	awsConf := aws.NewConfig()

	if conf.Endpoint != "" {
		if !amazonHostRE.MatchString(conf.Endpoint) && !strings.HasPrefix(conf.Endpoint, "https://") {
			awsConf.WithDisableSSL(true)
		}
		if !amazonHostRE.MatchString(conf.Endpoint) {
			awsConf.WithS3ForcePathStyle(true)
		}
		awsConf.WithEndpoint(conf.Endpoint)
	}
	if conf.Region != "" {
		awsConf.WithRegion(conf.Region)
	}
	if conf.MaxRetries > 0 {
		awsConf.WithMaxRetries(conf.MaxRetries)
	}
	if conf.Key != "" && conf.Secret != "" {
		creds := credentials.NewStaticCredentialsFromCreds(credentials.Value{
			AccessKeyID:     conf.Key,
			SecretAccessKey: conf.Secret,
			SessionToken:    conf.SessionToken,
		})
		awsConf.WithCredentials(creds)
	}
	return session.NewSession(awsConf)
}

// Put uploads the file at path to an S3 object.
func (s3b *AmazonS3Backend) Put(ctx context.Context, rawurl, path string) error {
	url, err := s3b.parse(rawurl)
	if err != nil {
		return err
	}
	sess, err := s3b.bucketSession(ctx, url.bucket)
	if err != nil {
		return err
	}

	hf, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %q, %v", path, err)
	}
	defer hf.Close()

	_, err = s3manager.NewUploader(sess).UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(url.bucket),
		Key:    aws.String(url.path),
		Body:   hf,
	})
	return err
}

// Mkdir creates the bucket if it doesn't exist. S3 has no directories,
// so the rest of the URL is ignored.
func (s3b *AmazonS3Backend) Mkdir(ctx context.Context, rawurl string) error {
	url, err := s3b.parse(rawurl)
	if err != nil {
		return err
	}
	client := s3.New(s3b.sess)
	_, err = client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(url.bucket)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		return err
	}
	_, err = client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(url.bucket)})
	return err
}

// Exists returns true if the url names an object, or a prefix of at least one object.
func (s3b *AmazonS3Backend) Exists(ctx context.Context, rawurl string) (bool, error) {
	url, err := s3b.parse(rawurl)
	if err != nil {
		return false, err
	}
	sess, err := s3b.bucketSession(ctx, url.bucket)
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, err
	}
	client := s3.New(sess)

	if url.path != "" {
		_, err = client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(url.bucket),
			Key:    aws.String(url.path),
		})
		if err == nil {
			return true, nil
		}
		if !isS3NotFound(err) {
			return false, err
		}
	}

	out, err := client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(url.bucket),
		Prefix:  aws.String(dirPrefix(url.path)),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
}

// Delete removes the object at url and every object under it.
func (s3b *AmazonS3Backend) Delete(ctx context.Context, rawurl string) error {
	url, err := s3b.parse(rawurl)
	if err != nil {
		return err
	}
	sess, err := s3b.bucketSession(ctx, url.bucket)
	if err != nil {
		return err
	}
	client := s3.New(sess)

	if url.path != "" {
		_, err = client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(url.bucket),
			Key:    aws.String(url.path),
		})
		if err != nil && !isS3NotFound(err) {
			return err
		}
	}

	iter := s3manager.NewDeleteListIterator(client, &s3.ListObjectsInput{
		Bucket: aws.String(url.bucket),
		Prefix: aws.String(dirPrefix(url.path)),
	})
	return s3manager.NewBatchDeleteWithClient(client).Delete(ctx, iter)
}

// bucketSession returns a session for the region the bucket lives in.
func (s3b *AmazonS3Backend) bucketSession(ctx context.Context, bucket string) (*session.Session, error) {
	region, err := s3manager.GetBucketRegion(ctx, s3b.sess, bucket, "us-east-1")
	if err != nil {
		return nil, fmt.Errorf("failed to determine region for bucket: %s. error: %w", bucket, err)
	}
	return s3b.sess.Copy(&aws.Config{Region: aws.String(region)}), nil
}

func (s3b *AmazonS3Backend) parse(rawurl string) (*urlparts, error) {
	scheme := Scheme(rawurl)
	if !isS3Scheme(scheme) {
		return nil, &ErrUnsupportedProtocol{"amazonS3"}
	}

	path := rawurl[len(scheme)+len("://"):]
	if s3b.endpoint != "" {
		path = strings.TrimPrefix(path, s3b.endpoint)
	} else {
		path = amazonHostRE.ReplaceAllString(path, "")
	}
	return parseBucketURL("amazonS3", "", path)
}

func isS3Scheme(scheme string) bool {
	for _, s := range s3Schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// dirPrefix returns the key prefix of everything "under" key.
func dirPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

// permanentS3Codes are AWS error codes caused by missing or rejected
// credentials.
var permanentS3Codes = map[string]bool{
	"NoCredentialProviders":       true,
	"InvalidAccessKeyId":          true,
	"SignatureDoesNotMatch":       true,
	"AccessDenied":                true,
	"ExpiredToken":                true,
	"InvalidToken":                true,
	"AuthFailure":                 true,
	"UnrecognizedClientException": true,
}

// IsPermanentS3Error returns true if err means the configured credentials
// can't be used.
func IsPermanentS3Error(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) && permanentS3Codes[aerr.Code()] {
		return true
	}
	var reqErr awserr.RequestFailure
	return errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusForbidden
}
