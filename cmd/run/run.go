// Package run contains the command which submits a job to Spark.
package run

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/ohsu-comp-bio/sparkrun/cmd/util"
	"github.com/ohsu-comp-bio/sparkrun/cmd/version"
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/job"
	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/spark"
	sigutil "github.com/ohsu-comp-bio/sparkrun/util"
	"github.com/spf13/cobra"
)

// NewCommand returns the run command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, j *job.Job, log *logger.Logger) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "run [job file]",
		Short: "Run a job on a Spark cluster.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}

			j, err := job.ParseFile(args[0])
			if err != nil {
				return err
			}

			log := logger.NewLogger("sparkrun", conf.Logger)
			ctx, cancel := sigutil.SignalContext(context.Background(), time.Millisecond*500, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return hooks.Run(ctx, conf, j, log)
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.Flags().AddFlagSet(util.RunFlags(&flagConf, &configFile))

	return cmd, hooks
}

// Run runs the job to completion or first failure.
func Run(ctx context.Context, conf config.Config, j *job.Job, log *logger.Logger) error {
	version.Log(log)

	r, err := spark.NewRunner(conf, j, log)
	if err != nil {
		return err
	}
	log = log.WithFields("jobKey", r.JobKey())
	r.Log = log

	log.Info("Running job", "master", conf.Spark.Master, "tmpDir", r.TmpDir())
	start := time.Now()
	if err := r.Run(ctx); err != nil {
		log.Error("Job failed", err)
		return err
	}
	log.Info("Job succeeded", "output", r.Output(), "elapsed", time.Since(start).String())
	return nil
}
