package util

import (
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/spf13/pflag"
)

// RunFlags returns a new flag set for configuring a job run.
func RunFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.AddFlagSet(sparkFlags(flagConf))
	f.AddFlagSet(storageFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))
	f.StringVar(&flagConf.Metrics.TextfilePath, "Metrics.TextfilePath", flagConf.Metrics.TextfilePath, "Write run metrics in the prometheus text format to this path")

	return f
}

// StorageFlags returns a new flag set for configuring storage access.
func StorageFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.AddFlagSet(storageFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))

	return f
}

func sparkFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Spark.Master, "Spark.Master", flagConf.Spark.Master, "Spark master URL, e.g. local[*], yarn, spark://host:7077")
	f.StringVar(&flagConf.Spark.DeployMode, "Spark.DeployMode", flagConf.Spark.DeployMode, "Spark deploy mode. One of ['client', 'cluster']")
	f.StringVar(&flagConf.Spark.SubmitBin, "Spark.SubmitBin", flagConf.Spark.SubmitBin, "Path or name of the spark-submit binary")
	f.StringVar(&flagConf.Spark.TmpDir, "Spark.TmpDir", flagConf.Spark.TmpDir, "Directory or URI for temp files")
	f.StringVar(&flagConf.Spark.HarnessPath, "Spark.HarnessPath", flagConf.Spark.HarnessPath, "Path of the harness script for streaming steps")
	f.IntVar(&flagConf.Spark.UploadParallelism, "Spark.UploadParallelism", flagConf.Spark.UploadParallelism, "Number of files uploaded concurrently")
	f.StringArrayVar(&flagConf.Spark.SubmitArgs, "Spark.SubmitArgs", flagConf.Spark.SubmitArgs, "Extra argument passed to spark-submit. This flag can be used multiple times")
	f.StringToStringVar(&flagConf.Spark.CmdEnv, "Spark.CmdEnv", flagConf.Spark.CmdEnv, "Environment variable set for every submission, as KEY=VALUE")

	return f
}

func storageFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.AmazonS3.Region, "AmazonS3.Region", flagConf.AmazonS3.Region, "Default AWS region")
	f.StringVar(&flagConf.GenericS3.Endpoint, "GenericS3.Endpoint", flagConf.GenericS3.Endpoint, "Endpoint of an S3 compatible object store")
	f.StringVar(&flagConf.GoogleStorage.CredentialsFile, "GoogleStorage.CredentialsFile", flagConf.GoogleStorage.CredentialsFile, "Google Cloud service account credentials file")
	f.StringVar(&flagConf.Hadoop.Bin, "Hadoop.Bin", flagConf.Hadoop.Bin, "Path or name of the hadoop binary")
	f.StringVar(&flagConf.Swift.AuthURL, "Swift.AuthURL", flagConf.Swift.AuthURL, "OpenStack Swift auth URL")
	f.Var(&flagConf.FTPStorage.Timeout, "FTPStorage.Timeout", "Timeout for FTP connections")

	return f
}

func loggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Logger.OutputFile, "Logger.OutputFile", flagConf.Logger.OutputFile, "File path to write logs to")
	f.StringVar(&flagConf.Logger.Formatter, "Logger.Formatter", flagConf.Logger.Formatter, "Logs formatter. One of ['text', 'json']")

	return f
}
