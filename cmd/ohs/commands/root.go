package commands

import (
	"fmt"
	"os"

	"github.com/panyam/ohscript/core"
	"github.com/spf13/cobra"
)

var (
	unitDir  string
	logLevel string
	workers  int
)

var rootCmd = &cobra.Command{
	Use:   "ohs",
	Short: "ohs checks and runs ohscript units",
	Long: `ohs analyzes ohscript compilation units, reports their type errors
and runs them. Units are JSON encoded syntax trees resolved by name from
the unit directory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&unitDir, "dir", "d", "", "Directory units are resolved from (default: OHS_UNIT_PATH or .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn, error or off (default: OHS_LOG_LEVEL or info)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent async blocks (default: OHS_ASYNC_WORKERS or 8)")
}

// loadConfig reads the environment and lets flags override it.
func loadConfig() (*core.Config, error) {
	cfg, err := core.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if unitDir != "" {
		cfg.UnitPath = unitDir
	}
	if logLevel != "" {
		if cfg.LogLevel, err = core.ParseLogLevel(logLevel); err != nil {
			return nil, err
		}
	}
	if workers > 0 {
		cfg.AsyncWorkers = workers
	}
	core.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
