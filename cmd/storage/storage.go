package storage

import (
	"context"
	"fmt"

	cmdutil "github.com/ohsu-comp-bio/sparkrun/cmd/util"
	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/ohsu-comp-bio/sparkrun/storage"
	"github.com/spf13/cobra"
)

// NewCommand returns the "storage" subcommands.
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	// NewStorage builds the storage used by the subcommands.
	NewStorage func(conf config.Config, log *logger.Logger) (storage.Storage, error)
}

func newStorage(conf config.Config, log *logger.Logger) (storage.Storage, error) {
	store, err := storage.NewCompositeFromConfig(conf, log, nil)
	if err != nil {
		log.Debug("Some storage backends are unavailable", err)
	}
	if len(store.Schemes()) == 0 {
		return nil, fmt.Errorf("creating storage clients: %v", err)
	}
	return store, nil
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		NewStorage: newStorage,
	}

	var (
		configFile string
		flagConf   config.Config
		conf       config.Config
		retries    = 1
	)

	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Access storage through sparkrun's backends.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			conf, err = cmdutil.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("processing config: %v", err)
			}
			return nil
		},
	}
	cmd.SetGlobalNormalizationFunc(cmdutil.NormalizeFlags)
	f := cmd.PersistentFlags()
	f.AddFlagSet(cmdutil.StorageFlags(&flagConf, &configFile))
	f.IntVar(&retries, "retries", retries, "Number of times to try each operation")

	// open returns the configured storage, retrying transient errors.
	open := func() (storage.Storage, error) {
		log := logger.NewLogger("storage", conf.Logger)
		store, err := hooks.NewStorage(conf, log)
		if err != nil {
			return nil, err
		}
		if retries > 1 {
			return storage.NewRetrier(store, retries, log), nil
		}
		return store, nil
	}

	putCmd := &cobra.Command{
		Use:   "put [path] [url]",
		Short: "Put the local file to the given URL.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			return store.Put(context.Background(), args[1], args[0])
		},
	}

	mkdirCmd := &cobra.Command{
		Use:   "mkdir [url]",
		Short: "Create a directory (or bucket) at the given URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			return store.Mkdir(context.Background(), args[0])
		},
	}

	existsCmd := &cobra.Command{
		Use:   "exists [url]",
		Short: "Print whether anything exists at the given URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			ok, err := store.Exists(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm [url]",
		Short: "Delete the object or directory at the given URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			return store.Delete(context.Background(), args[0])
		},
	}

	cmd.AddCommand(putCmd)
	cmd.AddCommand(mkdirCmd)
	cmd.AddCommand(existsCmd)
	cmd.AddCommand(rmCmd)
	return cmd, hooks
}
