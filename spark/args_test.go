package spark

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/job"
	"github.com/ohsu-comp-bio/sparkrun/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobKey = "wc.alice.cm5q0ji2nl4s73b7ovrg"
const testModule = "wc_alice_cm5q0ji2nl4s73b7ovrg"
const testTmp = "s3://bucket/tmp/" + testJobKey

var confA = job.JobConf{"mapreduce.job.reduces": "1"}
var confB = job.JobConf{"mapreduce.job.reduces": "2"}

func streaming(c job.JobConf) job.Step {
	return job.Step{Type: job.Streaming, JobConf: c}
}

func sparkScript(script string, args ...string) job.Step {
	return job.Step{Type: job.SparkScript, Script: script, Args: args}
}

func testBuilder(steps ...job.Step) *ArgBuilder {
	return &ArgBuilder{
		Conf: config.Spark{
			SubmitBin:   "spark-submit",
			Master:      "yarn",
			DeployMode:  "cluster",
			HarnessPath: "/opt/harness.py",
		},
		Job: &job.Job{
			Name:     "wc",
			JobClass: "MRWordCount",
			Input:    []string{"s3://bucket/in1", "s3://bucket/in2"},
			Steps:    steps,
		},
		JobKey: testJobKey,
		TmpDir: testTmp,
		Output: "s3://bucket/out",
	}
}

func TestHarnessArgsWholeJob(t *testing.T) {
	b := testBuilder(streaming(confA), streaming(confA))
	groups := job.GroupSteps(b.Job.Steps)
	require.Len(t, groups, 1)

	assert.Equal(t, []string{
		testModule + ".MRWordCount",
		"s3://bucket/in1,s3://bucket/in2",
		"s3://bucket/out",
	}, b.HarnessArgs(groups[0]))
}

func TestHarnessArgsStepRange(t *testing.T) {
	b := testBuilder(streaming(confA), streaming(confA), streaming(confB), sparkScript("s.py"))
	groups := job.GroupSteps(b.Job.Steps)
	require.Len(t, groups, 3)

	// the output is the last step's, not the first
	assert.Equal(t, []string{
		testModule + ".MRWordCount",
		"s3://bucket/in1,s3://bucket/in2",
		testTmp + "/step-output/0002",
		"--first-step-num", "0",
		"--last-step-num", "1",
	}, b.HarnessArgs(groups[0]))

	assert.Equal(t, []string{
		testModule + ".MRWordCount",
		testTmp + "/step-output/0002",
		testTmp + "/step-output/0003",
		"--first-step-num", "2",
		"--last-step-num", "2",
	}, b.HarnessArgs(groups[1]))
}

func TestHarnessArgsLastGroupOfJob(t *testing.T) {
	b := testBuilder(sparkScript("s.py"), streaming(nil))
	groups := job.GroupSteps(b.Job.Steps)
	require.Len(t, groups, 2)

	args := b.HarnessArgs(groups[1])
	assert.Equal(t, "s3://bucket/out", args[2])
	assert.Equal(t, []string{"--first-step-num", "1", "--last-step-num", "1"}, args[3:])
}

func TestHarnessArgsJobArgs(t *testing.T) {
	b := testBuilder(streaming(nil))
	b.Job.Args = []string{"--foo", "bar baz"}
	args := b.HarnessArgs(job.GroupSteps(b.Job.Steps)[0])
	assert.Equal(t, []string{"--job-args", "--foo 'bar baz'"}, args[3:])

	b.Job.Args = nil
	args = b.HarnessArgs(job.GroupSteps(b.Job.Steps)[0])
	assert.NotContains(t, args, "--job-args")
}

func TestHarnessArgsCompressionCodec(t *testing.T) {
	const codec = "org.apache.hadoop.io.compress.SnappyCodec"
	cases := []struct {
		name   string
		conf   job.JobConf
		expect bool
	}{
		{"enabled with codec", job.JobConf{
			"mapreduce.map.output.compress":       "true",
			"mapreduce.map.output.compress.codec": codec,
		}, true},
		{"hadoop 1 names", job.JobConf{
			"mapred.compress.map.output":          "true",
			"mapred.map.output.compression.codec": codec,
		}, true},
		{"codec only", job.JobConf{
			"mapreduce.map.output.compress.codec": codec,
		}, false},
		{"disabled with codec", job.JobConf{
			"mapreduce.map.output.compress":       "false",
			"mapreduce.map.output.compress.codec": codec,
		}, false},
		{"enabled without codec", job.JobConf{
			"mapreduce.map.output.compress": "true",
		}, false},
		{"empty", nil, false},
	}

	for _, c := range cases {
		b := testBuilder(streaming(c.conf))
		args := b.HarnessArgs(job.GroupSteps(b.Job.Steps)[0])
		if c.expect {
			assert.Equal(t, []string{"--compression-codec", codec}, args[3:], c.name)
		} else {
			assert.NotContains(t, args, "--compression-codec", c.name)
		}
	}
}

func TestArgsStreaming(t *testing.T) {
	b := testBuilder(streaming(job.JobConf{"mapreduce.job.reduces": "3"}))
	b.Conf.CmdEnv = map[string]string{"TZ": "UTC"}
	b.ScriptCopy = "/tmp/x/job_script/" + testModule + ".py"
	g := job.GroupSteps(b.Job.Steps)[0]

	assert.Equal(t, []string{
		"spark-submit",
		"--master", "yarn",
		"--deploy-mode", "cluster",
		"--name", testJobKey,
		"--conf", "mapreduce.job.reduces=3",
		"--conf", "spark.executorEnv.TZ=UTC",
		"--conf", "spark.yarn.appMasterEnv.TZ=UTC",
		"--files", "/tmp/x/job_script/" + testModule + ".py#" + testModule + ".py",
		"/opt/harness.py",
		testModule + ".MRWordCount",
		"s3://bucket/in1,s3://bucket/in2",
		"s3://bucket/out",
	}, b.Args(g))
}

func TestArgsNativeSteps(t *testing.T) {
	tmp := t.TempDir()
	lookup := filepath.Join(tmp, "lookup.tsv")
	env := filepath.Join(tmp, "env.tar.gz")
	stager := storage.NewStager(testTmp + "/files/")
	stager.StageIfLocal(lookup)
	stager.StageIfLocal(env)

	jar := job.Step{
		Type:      job.SparkJar,
		Jar:       "s3://bucket/app.jar",
		MainClass: "com.example.App",
		Args:      []string{"<input>", "--out", "<output>"},
		SparkArgs: []string{"--executor-memory", "2g"},
	}
	b := testBuilder(sparkScript("/jobs/clean.py", "<input>", "<output>", "x<input>"), jar)
	b.Stager = stager
	b.Job.Files = []string{lookup}
	b.Job.Archives = []string{env}
	b.Conf.SubmitArgs = []string{"--verbose"}
	groups := job.GroupSteps(b.Job.Steps)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{
		"spark-submit",
		"--master", "yarn",
		"--deploy-mode", "cluster",
		"--name", testJobKey,
		"--files", testTmp + "/files/lookup.tsv#lookup.tsv",
		"--archives", testTmp + "/files/env.tar.gz#env.tar.gz",
		"--verbose",
		"/jobs/clean.py",
		"s3://bucket/in1,s3://bucket/in2",
		testTmp + "/step-output/0001",
		"x<input>",
	}, b.Args(groups[0]))

	args := b.Args(groups[1])
	assert.Equal(t, []string{"--class", "com.example.App"}, args[7:9])
	assert.Equal(t, []string{
		"--verbose",
		"--executor-memory", "2g",
		"s3://bucket/app.jar",
		testTmp + "/step-output/0001",
		"--out",
		"s3://bucket/out",
	}, args[len(args)-7:])
}

func TestArgsSparkStep(t *testing.T) {
	b := testBuilder(job.Step{Type: job.Spark})
	b.Job.Script = "/jobs/mr_job.py"
	b.Job.Args = []string{"--x"}
	g := job.GroupSteps(b.Job.Steps)[0]

	args := b.Args(g)
	assert.Equal(t, []string{
		"/jobs/mr_job.py",
		"--step-num=0",
		"--spark",
		"--x",
		"s3://bucket/in1,s3://bucket/in2",
		"s3://bucket/out",
	}, args[len(args)-6:])
}

func TestEnvLocalMaster(t *testing.T) {
	t.Setenv("PYTHONPATH", "/existing")
	t.Setenv("SPARKRUN_TEST_VAR", "from-env")

	b := testBuilder(streaming(nil))
	b.Conf.Master = "local[2]"
	b.Conf.CmdEnv = map[string]string{"SPARKRUN_TEST_VAR": "from-conf", "A": "1"}
	b.Job.CmdEnv = map[string]string{"A": "2"}
	b.ScriptCopy = "/tmp/run/job_script/m.py"

	env := b.Env()
	assert.Contains(t, env, "PYTHONPATH=/tmp/run/job_script"+string(os.PathListSeparator)+"/existing")
	assert.Contains(t, env, "SPARKRUN_TEST_VAR=from-conf")
	assert.Contains(t, env, "A=2")

	// without a local master, PYTHONPATH is left alone
	b.Conf.Master = "yarn"
	assert.Contains(t, b.Env(), "PYTHONPATH=/existing")
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "mr_wc_alice_x1", ModuleName("mr-wc.alice.x1"))
	id := testBuilder(streaming(nil)).JobClassID()
	assert.True(t, strings.HasSuffix(id, ".MRWordCount"))
	assert.Equal(t, testModule, strings.TrimSuffix(id, ".MRWordCount"))
}
