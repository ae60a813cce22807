package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"growtasks/internal/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	driver     string
	dataDir    string
	jsonOut    bool
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "growtasks",
		Short: "GrowTasks - a personal task list that grows a garden",
		Long: `GrowTasks keeps a single-user task list grouped into today, tomorrow,
this week and someday, with a trash for deleted tasks.

Run "growtasks serve" for the HTTP API, or use the commands below directly.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a config file")
	flags.StringVar(&opts.driver, "driver", "", "Storage driver (file, sqlite, postgres, redis, memory)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for the file and sqlite drivers")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newGroupsCmd(opts),
		newDoneCmd(opts),
		newEditCmd(opts),
		newRmCmd(opts),
		newRestoreCmd(opts),
		newPurgeCmd(opts),
		newTrashCmd(opts),
		newCompletedCmd(opts),
		newStatsCmd(opts),
		newGardenCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.dataDir != "" {
		cfg.Storage.FileDir = o.dataDir
		cfg.Storage.SQLite = filepath.Join(o.dataDir, "growtasks.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRuntime opens storage for the duration of fn.
func (o *rootOptions) withRuntime(fn func(rt *Runtime) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	rt, err := NewRuntime(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func (o *rootOptions) printer(w io.Writer) *printer {
	return &printer{w: w, json: o.jsonOut}
}
