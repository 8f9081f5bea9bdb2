package storage

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/metrics"
)

// NewCompositeFromConfig returns a Composite with a backend registered for
// every valid storage configuration. Backends are registered in a fixed
// order, so a configured generic S3 endpoint takes the S3 schemes over
// from Amazon S3.
//
// A backend which fails to initialize is skipped and its error is
// included in the returned error; the Composite is always usable for the
// remaining backends.
func NewCompositeFromConfig(conf config.Config, log *logger.Logger, m *metrics.Metrics) (*Composite, error) {
	c := NewComposite(log, m)
	var errs *multierror.Error

	if conf.LocalStorage.Valid() {
		local, err := NewLocal(conf.LocalStorage)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure local storage backend: %s", err))
		} else {
			c.Register("local", local, nil, localScheme)
		}
	}

	if conf.AmazonS3.Valid() {
		s3, err := NewAmazonS3Backend(conf.AmazonS3)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure Amazon S3 storage backend: %s", err))
		} else {
			c.Register("amazonS3", s3, IsPermanentS3Error, s3Schemes...)
		}
	}

	if conf.GenericS3.Valid() {
		s3, err := NewGenericS3Backend(conf.GenericS3)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure generic S3 storage backend: %s", err))
		} else {
			c.Register("genericS3", s3, IsPermanentGenericS3Error, s3Schemes...)
		}
	}

	if conf.GoogleStorage.Valid() {
		gs, err := NewGoogleCloud(conf.GoogleStorage)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure Google Storage backend: %s", err))
		} else {
			c.Register("googleStorage", gs, IsPermanentGoogleError, "gs")
		}
	}

	if conf.Hadoop.Valid() {
		h, err := NewHadoop(conf.Hadoop)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure Hadoop storage backend: %s", err))
		} else {
			c.Register("hadoop", h, IsPermanentHadoopError, "hdfs")
		}
	}

	if conf.Swift.Valid() {
		s, err := NewSwiftBackend(conf.Swift)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure Swift storage backend: %s", err))
		} else {
			c.Register("swift", s, IsPermanentSwiftError, "swift")
		}
	}

	if conf.FTPStorage.Valid() {
		f, err := NewFTP(conf.FTPStorage)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to configure FTP storage backend: %s", err))
		} else {
			c.Register("ftpStorage", f, IsPermanentFTPError, "ftp")
		}
	}

	return c, errs.ErrorOrNil()
}
