package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"themegate/internal/config"
	"themegate/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string

	cfg    *config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "themegate",
		Short: "themegate - theme, motion and post-FX gating",
		Long: `themegate resolves which visual theme, motion mode and post-processing
effects a client may run, given user preferences, the OS reduced-motion
signal and operator rollout flags.

Flags live in a SQLite store (default) or a YAML file under .themegate/.
Every decision is recomputed from its inputs; nothing is cached.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(resolvePath(configPath))
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			cfg = loaded

			l, _, err := logging.New(cfg.Logging, verbose)
			if err != nil {
				return err
			}
			logger = l
			logging.Initialize(logger, cfg.Logging)
			logging.Get(logging.CategoryBoot).Debug("config loaded",
				zap.String("path", resolvePath(configPath)),
				zap.String("flag_source", cfg.Rollout.Source))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current directory)")

	rootCmd.AddCommand(
		newResolveCmd(),
		newFlagsCmd(),
		newPrefsCmd(),
		newMonitorCmd(),
		newMatrixCmd(),
		newWatchCmd(),
		newUsageCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
