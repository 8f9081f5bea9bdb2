package spark

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/job"
	"github.com/ohsu-comp-bio/sparkrun/storage"
)

// Placeholders in step args, replaced by the step's input and output URIs.
const (
	InputPlaceholder  = "<input>"
	OutputPlaceholder = "<output>"
)

var nonWordRE = regexp.MustCompile(`\W`)

// ModuleName returns the module the job script copy is imported as, for a
// given job key.
func ModuleName(jobKey string) string {
	return nonWordRE.ReplaceAllString(jobKey, "_")
}

// ArgBuilder builds spark-submit command lines and environments for step
// groups of one job.
type ArgBuilder struct {
	Conf   config.Spark
	Job    *job.Job
	JobKey string
	// Where intermediate step output goes.
	TmpDir string
	// Output of the last step.
	Output string
	// Local path of the job script copy, if the job needs one.
	ScriptCopy string
	// Maps local files to the URIs the cluster reads them from. May be nil,
	// in which case paths are used as-is.
	Stager *storage.Stager
}

// JobClassID returns the fully qualified job class the harness loads.
func (b *ArgBuilder) JobClassID() string {
	return ModuleName(b.JobKey) + "." + b.Job.JobClass
}

func (b *ArgBuilder) uri(path string) string {
	if b.Stager == nil {
		return path
	}
	uri, _ := b.Stager.URI(path)
	return uri
}

// StepInputURIs returns the inputs of the given step: the job's inputs for
// the first step, the previous step's output otherwise.
func (b *ArgBuilder) StepInputURIs(stepNum int) []string {
	if stepNum > 0 {
		return []string{b.StepOutputURI(stepNum - 1)}
	}
	uris := make([]string, 0, len(b.Job.Input))
	for _, in := range b.Job.Input {
		uris = append(uris, b.uri(in))
	}
	return uris
}

// StepOutputURI returns where the given step writes its output.
func (b *ArgBuilder) StepOutputURI(stepNum int) string {
	if stepNum >= b.Job.NumSteps()-1 {
		return b.Output
	}
	return joinPath(b.TmpDir, "step-output", fmt.Sprintf("%04d", stepNum+1))
}

// Args returns the full command line which runs the group, starting with
// the spark-submit binary.
func (b *ArgBuilder) Args(g job.Group) []string {
	args := []string{b.Conf.SubmitBin}
	args = append(args, b.SubmitArgs(g)...)
	args = append(args, b.appPath(g))
	args = append(args, b.AppArgs(g)...)
	return args
}

// SubmitArgs returns the spark-submit options for the group, which come
// before the application.
func (b *ArgBuilder) SubmitArgs(g job.Group) []string {
	step := g.Steps[0]
	args := []string{
		"--master", b.Conf.Master,
		"--deploy-mode", b.Conf.DeployMode,
		"--name", b.JobKey,
	}

	if step.Type == job.SparkJar && step.MainClass != "" {
		args = append(args, "--class", step.MainClass)
	}

	// cmdenv is passed to executors through spark conf; jobconf comes
	// last so it can override.
	conf := map[string]string{}
	for k, v := range b.CmdEnv() {
		conf["spark.executorEnv."+k] = v
		if b.Conf.Master == "yarn" {
			conf["spark.yarn.appMasterEnv."+k] = v
		}
	}
	for k, v := range g.JobConf() {
		conf[k] = v
	}
	for _, k := range sortedKeys(conf) {
		args = append(args, "--conf", k+"="+conf[k])
	}

	if files := b.workingFiles(g); len(files) > 0 {
		args = append(args, "--files", strings.Join(files, ","))
	}
	if len(b.Job.Archives) > 0 {
		var archives []string
		for _, a := range b.Job.Archives {
			archives = append(archives, b.uri(a)+"#"+filepath.Base(a))
		}
		args = append(args, "--archives", strings.Join(archives, ","))
	}

	args = append(args, b.Conf.SubmitArgs...)
	args = append(args, step.SparkArgs...)
	return args
}

// workingFiles returns the "--files" entries, as "uri#name".
func (b *ArgBuilder) workingFiles(g job.Group) []string {
	var files []string
	for _, f := range b.Job.Files {
		files = append(files, b.uri(f)+"#"+filepath.Base(f))
	}
	if b.ScriptCopy != "" && g.Kind().Translated() {
		files = append(files, b.uri(b.ScriptCopy)+"#"+filepath.Base(b.ScriptCopy))
	}
	return files
}

func (b *ArgBuilder) appPath(g job.Group) string {
	step := g.Steps[0]
	switch step.Type {
	case job.Streaming:
		return b.Conf.HarnessPath
	case job.Spark:
		if b.ScriptCopy != "" {
			return b.ScriptCopy
		}
		return b.Job.Script
	case job.SparkScript:
		return step.Script
	case job.SparkJar:
		return step.Jar
	default:
		panic(fmt.Sprintf("unhandled step kind %v", step.Type))
	}
}

// AppArgs returns the arguments passed to the application. Translated
// groups get the harness arguments; native steps their own args with
// placeholders filled in.
func (b *ArgBuilder) AppArgs(g job.Group) []string {
	step := g.Steps[0]
	switch step.Type {
	case job.Streaming:
		return b.HarnessArgs(g)
	case job.Spark:
		args := []string{"--step-num=" + strconv.Itoa(g.StepNum), "--spark"}
		args = append(args, b.Job.Args...)
		return append(args, b.StepInputURIsJoined(g.StepNum), b.StepOutputURI(g.StepNum))
	case job.SparkScript, job.SparkJar:
		return b.interpolate(step.Args, g.StepNum)
	default:
		panic(fmt.Sprintf("unhandled step kind %v", step.Type))
	}
}

// StepInputURIsJoined returns the step's inputs as a comma separated list.
func (b *ArgBuilder) StepInputURIsJoined(stepNum int) string {
	return strings.Join(b.StepInputURIs(stepNum), ",")
}

func (b *ArgBuilder) interpolate(args []string, stepNum int) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case InputPlaceholder:
			out = append(out, b.StepInputURIsJoined(stepNum))
		case OutputPlaceholder:
			out = append(out, b.StepOutputURI(stepNum))
		default:
			out = append(out, a)
		}
	}
	return out
}

// HarnessArgs returns the arguments of the harness script running a group
// of translated steps.
func (b *ArgBuilder) HarnessArgs(g job.Group) []string {
	args := []string{
		b.JobClassID(),
		b.StepInputURIsJoined(g.StepNum),
		// downstream steps only read the last step's output
		b.StepOutputURI(g.LastStepNum()),
	}

	if !g.Spans(b.Job.NumSteps()) {
		args = append(args,
			"--first-step-num", strconv.Itoa(g.StepNum),
			"--last-step-num", strconv.Itoa(g.LastStepNum()),
		)
	}

	if len(b.Job.Args) > 0 {
		args = append(args, "--job-args", shellquote.Join(b.Job.Args...))
	}

	if codec, ok := g.JobConf().MapOutputCodec(); ok {
		args = append(args, "--compression-codec", codec)
	}
	return args
}

// CmdEnv returns the environment variables configured for the job, with
// the job's own cmdenv overriding the configured one.
func (b *ArgBuilder) CmdEnv() map[string]string {
	env := map[string]string{}
	for k, v := range b.Conf.CmdEnv {
		env[k] = v
	}
	for k, v := range b.Job.CmdEnv {
		env[k] = v
	}
	return env
}

// Env returns the environment spark-submit runs with, as "key=value"
// pairs sorted by key: this process's environment overlaid with cmdenv.
// With a local master, the job script copy's directory is prepended to
// PYTHONPATH so the harness can import the job.
func (b *ArgBuilder) Env() []string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.Index(kv, "="); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range b.CmdEnv() {
		env[k] = v
	}

	if b.Conf.MasterIsLocal() && b.ScriptCopy != "" {
		dir := filepath.Dir(b.ScriptCopy)
		if cur := env["PYTHONPATH"]; cur != "" {
			env["PYTHONPATH"] = dir + string(os.PathListSeparator) + cur
		} else {
			env["PYTHONPATH"] = dir
		}
	}

	out := make([]string, 0, len(env))
	for _, k := range sortedKeys(env) {
		out = append(out, k+"="+env[k])
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// joinPath joins URIs with "/" and local paths with the OS separator.
func joinPath(dir string, elem ...string) string {
	if storage.IsURI(dir) {
		out := dir
		for _, e := range elem {
			out = storage.Join(out, e)
		}
		return out
	}
	return filepath.Join(append([]string{dir}, elem...)...)
}
