// Package spark runs jobs on a Spark cluster through spark-submit.
package spark

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/job"
	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/metrics"
	"github.com/ohsu-comp-bio/sparkrun/storage"
	"github.com/ohsu-comp-bio/sparkrun/util"
	"github.com/ohsu-comp-bio/sparkrun/util/fsutil"
)

// Runner runs one job. A Runner is used for a single run; its storage
// backends, staged files and metrics belong to that run only.
type Runner struct {
	Conf    config.Config
	Job     *job.Job
	Log     *logger.Logger
	Metrics *metrics.Metrics
	Store   storage.Storage
	Handler RecordHandler

	jobKey      string
	tmpDir      string
	localTmpDir string
	output      string
	stager      *storage.Stager
}

// NewRunner validates the job and sets up storage for the run. The runner
// works on its own copy of the job. Backends which fail to configure are
// logged and left out.
func NewRunner(conf config.Config, j *job.Job, log *logger.Logger) (*Runner, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	j, err := j.Copy()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	store, err := storage.NewCompositeFromConfig(conf, log.NewSubLogger("storage"), m)
	if err != nil {
		log.Warn("Some storage backends are unavailable", err)
	}

	r := &Runner{
		Conf:    conf,
		Job:     j,
		Log:     log,
		Metrics: m,
		Store:   store,
		jobKey:  util.GenJobKey(j.Name, j.Owner),
	}
	r.tmpDir = r.pickTmpDir()
	r.localTmpDir = r.tmpDir
	if storage.IsURI(r.tmpDir) {
		r.localTmpDir = filepath.Join(os.TempDir(), r.jobKey)
	}
	r.stager = storage.NewStager(storage.Join(r.tmpDir, "files") + "/")

	r.output = j.Output
	if r.output == "" {
		r.output = joinPath(r.tmpDir, "output")
	}
	return r, nil
}

// JobKey returns the key identifying this run.
func (r *Runner) JobKey() string {
	return r.jobKey
}

// TmpDir returns where the run keeps its files.
func (r *Runner) TmpDir() string {
	return r.tmpDir
}

// Output returns where the last step writes its output.
func (r *Runner) Output() string {
	return r.output
}

func (r *Runner) pickTmpDir() string {
	spark := r.Conf.Spark
	switch {
	case spark.TmpDir != "":
		return joinPath(spark.TmpDir, r.jobKey)
	case spark.MasterIsLocal():
		// "-spark" keeps clear of other runners' local temp dirs
		return filepath.Join(os.TempDir(), r.jobKey+"-spark")
	default:
		return storage.Join(fmt.Sprintf("hdfs:///user/%s/tmp/mrjob", r.Job.Owner), r.jobKey)
	}
}

// Run stages the job's files and runs its step groups in order, stopping at
// the first failure.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer func() {
		if werr := r.Metrics.WriteTextfile(r.Conf.Metrics.TextfilePath); werr != nil {
			r.Log.Error("Writing metrics", werr)
		}
	}()

	if _, err := exec.LookPath(r.Conf.Spark.SubmitBin); err != nil {
		return fmt.Errorf("finding spark-submit: %w", err)
	}
	if len(r.Job.Archives) > 0 && r.Conf.Spark.Master != "yarn" {
		r.Log.Warn(fmt.Sprintf("Spark master %q will probably ignore archives", r.Conf.Spark.Master))
	}

	args, err := r.prepare()
	if err != nil {
		return err
	}

	if !r.stager.Passthrough() {
		r.Log.Info("Copying local files", "prefix", r.stager.Prefix())
	}
	err = r.stager.StageAll(ctx, r.Store, r.Log, r.Conf.Spark.UploadParallelism)
	if err != nil {
		return fmt.Errorf("staging files: %w", err)
	}

	ex := &Executor{
		Args:    args,
		Log:     r.Log,
		Metrics: r.Metrics,
		Handler: r.Handler,
	}
	return ex.RunAll(ctx, job.GroupSteps(r.Job.Steps))
}

// prepare copies the job script, records every local file the cluster
// needs with the stager, and returns the ArgBuilder for the run.
func (r *Runner) prepare() (*ArgBuilder, error) {
	args := &ArgBuilder{
		Conf:   r.Conf.Spark,
		Job:    r.Job,
		JobKey: r.jobKey,
		TmpDir: r.tmpDir,
		Output: r.output,
		Stager: r.stager,
	}

	if r.needsScriptCopy() {
		cp, err := r.copyJobScript()
		if err != nil {
			return nil, err
		}
		args.ScriptCopy = cp
		r.stager.StageIfLocal(cp)
	}

	var local []string
	local = append(local, r.Job.Files...)
	local = append(local, r.Job.Archives...)
	local = append(local, r.Job.Input...)
	for _, p := range local {
		if err := r.stageIfLocal(p); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// stageIfLocal records a local file for upload. Backends upload single
// files only, so local directories can't be staged.
func (r *Runner) stageIfLocal(path string) error {
	if !r.stager.Passthrough() && !storage.IsURI(path) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			return fmt.Errorf("can't upload directory %s to %s: only files can be staged", path, r.stager.Prefix())
		}
	}
	r.stager.StageIfLocal(path)
	return nil
}

func (r *Runner) needsScriptCopy() bool {
	if r.Job.Script == "" {
		return false
	}
	for _, s := range r.Job.Steps {
		if s.Type == job.Streaming || s.Type == job.Spark {
			return true
		}
	}
	return false
}

// copyJobScript puts the job script under a module name unique to this
// run, so the harness imports the same module on the driver and executors.
func (r *Runner) copyJobScript() (string, error) {
	dir := filepath.Join(r.localTmpDir, "job_script")
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("creating job script dir: %w", err)
	}
	dest := filepath.Join(dir, ModuleName(r.jobKey)+".py")
	if err := fsutil.SymlinkOrCopy(r.Job.Script, dest); err != nil {
		return "", fmt.Errorf("copying job script: %w", err)
	}
	return dest, nil
}
