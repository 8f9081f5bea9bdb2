package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCommand(fake *storage.Fake) (*bytes.Buffer, func(args ...string) error) {
	c, h := newCommandHooks()
	h.NewStorage = func(conf config.Config, log *logger.Logger) (storage.Storage, error) {
		return fake, nil
	}
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SilenceUsage = true
	c.SilenceErrors = true
	return out, func(args ...string) error {
		c.SetArgs(args)
		return c.Execute()
	}
}

func TestPutMkdirExistsRm(t *testing.T) {
	fake := storage.NewFake()
	out, run := fakeCommand(fake)

	require.NoError(t, run("put", "/tmp/a.txt", "s3://bucket/a.txt"))
	require.NoError(t, run("mkdir", "s3://bucket/dir"))
	require.NoError(t, run("exists", "s3://bucket/a.txt"))
	require.NoError(t, run("rm", "s3://bucket/a.txt"))
	require.NoError(t, run("exists", "s3://bucket/a.txt"))

	assert.Equal(t, []string{
		"put s3://bucket/a.txt",
		"mkdir s3://bucket/dir",
		"exists s3://bucket/a.txt",
		"delete s3://bucket/a.txt",
		"exists s3://bucket/a.txt",
	}, fake.Calls)
	assert.Equal(t, "true\nfalse\n", out.String())
	assert.True(t, fake.Dirs["s3://bucket/dir"])
}

func TestRetries(t *testing.T) {
	fake := storage.NewFake()
	fake.Err = &storage.TransientError{Err: errors.New("flaky")}
	_, run := fakeCommand(fake)

	err := run("mkdir", "s3://bucket/dir", "--retries", "2")
	require.Error(t, err)
	assert.True(t, storage.IsTransient(err))
	assert.Equal(t, 2, fake.NumCalls())
}

func TestArgCount(t *testing.T) {
	fake := storage.NewFake()
	_, run := fakeCommand(fake)
	assert.Error(t, run("put", "only-one"))
	assert.Equal(t, 0, fake.NumCalls())
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))
	dst := filepath.Join(dir, "out", "dst.txt")

	fileConf := config.DefaultConfig()
	fileConf.AmazonS3.Disabled = true
	fileConf.GoogleStorage.Disabled = true
	fileConf.Hadoop.Disabled = true
	fileConf.Swift.Disabled = true
	fileConf.FTPStorage.Disabled = true
	tmp := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.ToYamlFile(fileConf, tmp))

	c := NewCommand()
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetArgs([]string{"put", src, "file://" + dst, "-c", tmp})
	require.NoError(t, c.Execute())

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	c.SetArgs([]string{"exists", dst, "-c", tmp})
	require.NoError(t, c.Execute())
	assert.Equal(t, "true", strings.TrimSpace(out.String()))
}
