package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/subglot/subglot/internal/config"
	"github.com/subglot/subglot/internal/service"
)

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale uploads and translations once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewFromEnv()
			if err != nil {
				return err
			}
			cleaner := service.NewCleaner(
				[]string{cfg.UploadDir(), cfg.TranslatedDir()},
				time.Duration(cfg.Maintenance.RetentionHours)*time.Hour,
			)
			removed := cleaner.Sweep()
			fmt.Printf("Removed %d stale files\n", removed)
			return nil
		},
	}
}
