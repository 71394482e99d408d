package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/config"
)

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "app",
		Short:         "Task workflow service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath) // Загрузка конфигурации
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel, os.Stdout)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newTransitionCmd(a),
		newHistoryCmd(a),
		newSummaryCmd(a),
	)
	return root
}
