package job

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordcount = `
name: wordcount
owner: alice
job_class: MRWordCount
script: mr_wordcount.py
input: [in/a.txt, s3://bucket/b.txt]
output: s3://bucket/out
args: [--stop-words, stop.txt]
files: [stop.txt]
steps:
  - type: streaming
    jobconf:
      mapreduce.map.output.compress: true
    mapper: {type: script}
    reducer: {type: script}
  - type: spark_jar
    jar: lib/app.jar
    main_class: com.example.App
    args: [<input>, <output>]
`

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "job.yml")
	require.NoError(t, ioutil.WriteFile(p, []byte(wordcount), 0644))

	j, err := ParseFile(p)
	require.NoError(t, err)

	assert.Equal(t, "wordcount", j.Name)
	assert.Equal(t, "alice", j.Owner)
	assert.Equal(t, filepath.Join(dir, "mr_wordcount.py"), j.Script)
	assert.Equal(t, []string{filepath.Join(dir, "in/a.txt"), "s3://bucket/b.txt"}, j.Input)
	assert.Equal(t, filepath.Join(dir, "stop.txt"), j.Files[0])
	assert.Equal(t, 2, j.NumSteps())
	assert.True(t, j.HasStreamingSteps())

	s := j.Steps[0]
	assert.Equal(t, Streaming, s.Type)
	assert.Equal(t, "true", s.JobConf.Get(MapOutputCompress))
	assert.Len(t, s.Roles(), 2)
	assert.Equal(t, "mapper", s.Roles()[0].Name)

	assert.Equal(t, SparkJar, j.Steps[1].Type)
	assert.Equal(t, filepath.Join(dir, "lib/app.jar"), j.Steps[1].Jar)
	assert.NoError(t, j.Validate())
}

func TestCopy(t *testing.T) {
	j, err := Parse([]byte(wordcount))
	require.NoError(t, err)

	c, err := j.Copy()
	require.NoError(t, err)
	if diff := deep.Equal(c, j); diff != nil {
		t.Error("copy differs", diff)
	}

	c.Steps[0].JobConf["mapreduce.job.reduces"] = "4"
	c.Input[0] = "changed"
	assert.Equal(t, "", j.Steps[0].JobConf.Get("mapreduce.job.reduces"))
	assert.Equal(t, "in/a.txt", j.Input[0])
}

func TestParseUnknownStepType(t *testing.T) {
	_, err := Parse([]byte("steps: [{type: jar}]"))
	assert.Error(t, err)
}

func TestParseMissingStepType(t *testing.T) {
	_, err := Parse([]byte("script: x.py\nsteps:\n  - jobconf: {a: b}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0 has no type")
}

func TestValidateMissingStepType(t *testing.T) {
	j := &Job{Script: "job.py", Steps: []Step{{Script: "x.py"}}}
	err := j.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step has no type")
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{Spark, SparkScript, SparkJar, Streaming} {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var parsed Kind
		require.NoError(t, parsed.UnmarshalText(b))
		assert.Equal(t, k, parsed)
	}
	_, err := Kind(99).MarshalText()
	assert.Error(t, err)
	_, err = kindUnset.MarshalText()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	j := &Job{
		Script: "job.py",
		Steps: []Step{
			{Type: Streaming, Mapper: &Role{Command: "grep foo"}},
			{Type: Spark, InputManifest: true},
			{Type: SparkJar},
			{Type: SparkScript, Script: "s.py", Reducer: &Role{Type: "script"}},
		},
	}
	err := j.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	// job_class missing, mapper command, manifest, no jar, roles on spark_script
	assert.Len(t, merr.Errors, 5)

	var inc *IncompatibleStep
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, 0, inc.StepNum)

	nums := map[int]bool{}
	for _, e := range merr.Errors {
		var ie *IncompatibleStep
		require.True(t, errors.As(e, &ie))
		nums[ie.StepNum] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true, 3: true}, nums)
}

func TestValidateNoSteps(t *testing.T) {
	assert.Error(t, (&Job{}).Validate())
}

func TestIsURI(t *testing.T) {
	assert.True(t, IsURI("s3://bucket/key"))
	assert.True(t, IsURI("hdfs:///tmp"))
	assert.True(t, IsURI("file:///tmp/x"))
	assert.False(t, IsURI("/tmp/x"))
	assert.False(t, IsURI("relative/path"))
	assert.False(t, IsURI("C:\\windows"))
}
