package config

import (
	"github.com/ohsu-comp-bio/sparkrun/logger"
)

// Config describes configuration for sparkrun.
type Config struct {
	Logger logger.Config
	Spark  Spark
	// storage
	LocalStorage  LocalStorage
	AmazonS3      AmazonS3Storage
	GenericS3     GenericS3Storage
	GoogleStorage GCSStorage
	Hadoop        HadoopStorage
	Swift         SwiftStorage
	FTPStorage    FTPStorage
	Metrics       Metrics
}

// Spark describes how jobs are submitted to the Spark cluster.
type Spark struct {
	// Path or name of the spark-submit binary.
	SubmitBin string
	// Spark master URL, e.g. "local[*]", "yarn", "spark://host:7077".
	Master string
	// "client" or "cluster".
	DeployMode string
	// Where to put temp files. May be a local path or a URI.
	// When empty, a location is picked based on the master.
	TmpDir string
	// Local path of the harness script used to run streaming steps.
	HarnessPath string
	// Extra arguments passed to spark-submit before the application.
	SubmitArgs []string
	// Environment variables set for every submission.
	CmdEnv map[string]string
	// Number of files uploaded concurrently when staging. Values less than
	// two upload sequentially.
	UploadParallelism int
}

// MasterIsLocal returns true if the master runs everything in this process's host.
func (s Spark) MasterIsLocal() bool {
	return s.Master == "local" || (len(s.Master) > 6 && s.Master[:6] == "local[")
}

// LocalStorage describes access to the local filesystem.
type LocalStorage struct {
	Disabled bool
}

// Valid validates the LocalStorage configuration.
func (l LocalStorage) Valid() bool {
	return !l.Disabled
}

// AmazonS3Storage describes the configuration for the Amazon S3 storage backend.
type AmazonS3Storage struct {
	Disabled     bool
	Key          string
	Secret       string
	SessionToken string
	Region       string
	Endpoint     string
	MaxRetries   int
}

// Valid validates the AmazonS3Storage configuration.
func (s AmazonS3Storage) Valid() bool {
	return !s.Disabled
}

// GenericS3Storage describes the configuration for an S3 compatible object
// store reached through a custom endpoint.
type GenericS3Storage struct {
	Disabled bool
	Endpoint string
	Key      string
	Secret   string
}

// Valid validates the GenericS3Storage configuration.
func (s GenericS3Storage) Valid() bool {
	return !s.Disabled && s.Endpoint != ""
}

// GCSStorage describes configuration for the Google Cloud storage backend.
type GCSStorage struct {
	Disabled bool
	// If no account file is provided then credentials are looked up from
	// the environment.
	CredentialsFile string
	ProjectID       string
}

// Valid validates the GCSStorage configuration.
func (g GCSStorage) Valid() bool {
	return !g.Disabled
}

// HadoopStorage describes access to HDFS through the hadoop binary.
type HadoopStorage struct {
	Disabled bool
	Bin      string
}

// Valid validates the HadoopStorage configuration.
func (h HadoopStorage) Valid() bool {
	return !h.Disabled && h.Bin != ""
}

// SwiftStorage configures the OpenStack Swift object storage backend.
type SwiftStorage struct {
	Disabled   bool
	UserName   string
	Password   string
	AuthURL    string
	TenantName string
	TenantID   string
	RegionName string
	// Size of chunks to use for large object creation.
	// Defaults to 500 MB if not set or set below 10 MB.
	// The max number of chunks for a single object is 1000.
	ChunkSizeBytes int64
}

// Valid validates the SwiftStorage configuration.
func (s SwiftStorage) Valid() bool {
	return !s.Disabled && s.AuthURL != ""
}

// FTPStorage configures the FTP storage backend.
type FTPStorage struct {
	Disabled bool
	User     string
	Password string
	Timeout  Duration
}

// Valid validates the FTPStorage configuration.
func (f FTPStorage) Valid() bool {
	return !f.Disabled
}

// Metrics configures export of run metrics.
type Metrics struct {
	// When set, metrics are written in the prometheus text format to this
	// path after the run, for collection by a node exporter.
	TextfilePath string
}
