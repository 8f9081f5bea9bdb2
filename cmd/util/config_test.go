package util

import (
	"io"
	"testing"

	"github.com/ohsu-comp-bio/sparkrun/config"
)

func TestMergeConfigFileWithFlags(t *testing.T) {
	flagConf := config.Config{}
	flagConf.Spark.Master = "yarn"

	result, err := MergeConfigFileWithFlags("", flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if result.Spark.Master != "yarn" {
		t.Fatal("unexpected master", result.Spark.Master)
	}
	if result.Spark.SubmitBin != "spark-submit" {
		t.Fatal("expected SubmitBin to equal default value from config.DefaultConfig()")
	}

	fileConf := config.DefaultConfig()
	fileConf.Spark.DeployMode = "cluster"
	fileConf.Spark.Master = "spark://master:7077"
	tmp, cleanup := TempConfigFile(fileConf, "testconfig.yaml")
	defer cleanup()

	result, err = MergeConfigFileWithFlags(tmp, flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if result.Spark.Master != "yarn" {
		t.Fatal("expected flag to override config file", result.Spark.Master)
	}
	if result.Spark.DeployMode != "cluster" {
		t.Fatal("expected DeployMode from config file", result.Spark.DeployMode)
	}
}

func TestMergeConfigFileMissing(t *testing.T) {
	_, err := MergeConfigFileWithFlags("does-not-exist.yaml", config.Config{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeFlags(t *testing.T) {
	configFile := ""
	flagConf := config.Config{}
	f := RunFlags(&flagConf, &configFile)
	f.SetNormalizeFunc(NormalizeFlags)

	err := f.Parse([]string{
		"--spark-master", "yarn",
		"--spark.deploymode", "cluster",
		"--Spark.UploadParallelism", "4",
		"--Spark.SubmitArgs", "--num-executors=2",
		"--spark_cmdenv", "A=1",
		"--ftpstorage-timeout", "5s",
		"-c", "conf.yaml",
	})
	if err != nil {
		t.Fatal(err)
	}

	if flagConf.Spark.Master != "yarn" {
		t.Error("unexpected master", flagConf.Spark.Master)
	}
	if flagConf.Spark.DeployMode != "cluster" {
		t.Error("unexpected deploy mode", flagConf.Spark.DeployMode)
	}
	if flagConf.Spark.UploadParallelism != 4 {
		t.Error("unexpected upload parallelism", flagConf.Spark.UploadParallelism)
	}
	if len(flagConf.Spark.SubmitArgs) != 1 || flagConf.Spark.SubmitArgs[0] != "--num-executors=2" {
		t.Error("unexpected submit args", flagConf.Spark.SubmitArgs)
	}
	if flagConf.Spark.CmdEnv["A"] != "1" {
		t.Error("unexpected cmdenv", flagConf.Spark.CmdEnv)
	}
	if flagConf.FTPStorage.Timeout.String() != "5s" {
		t.Error("unexpected ftp timeout", flagConf.FTPStorage.Timeout.String())
	}
	if configFile != "conf.yaml" {
		t.Error("unexpected config file", configFile)
	}
}

func TestStorageFlagsSkipSpark(t *testing.T) {
	configFile := ""
	flagConf := config.Config{}
	f := StorageFlags(&flagConf, &configFile)
	f.SetNormalizeFunc(NormalizeFlags)
	f.SetOutput(io.Discard)

	err := f.Parse([]string{"--spark-master", "yarn"})
	if err == nil {
		t.Fatal("expected unknown flag error")
	}
	if f.Lookup("Hadoop.Bin") == nil {
		t.Fatal("expected Hadoop.Bin flag")
	}
}
