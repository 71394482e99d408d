package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrateStore(cmd.Context(), a.cfg); err != nil {
				return err
			}
			a.logger.Info("Schema is up to date", zap.String("driver", a.cfg.DatabaseDriver))
			return nil
		},
	}
}
