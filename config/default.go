package config

import (
	"time"

	"github.com/ohsu-comp-bio/sparkrun/logger"
)

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	return Config{
		Logger: logger.DefaultConfig(),
		Spark: Spark{
			SubmitBin:         "spark-submit",
			Master:            "local[*]",
			DeployMode:        "client",
			HarnessPath:       "mrjob_spark_harness.py",
			CmdEnv:            map[string]string{},
			UploadParallelism: 1,
		},
		AmazonS3: AmazonS3Storage{
			MaxRetries: 10,
		},
		Hadoop: HadoopStorage{
			Bin: "hadoop",
		},
		FTPStorage: FTPStorage{
			User:     "anonymous",
			Password: "anonymous",
			Timeout:  Duration(time.Second * 30),
		},
	}
}
