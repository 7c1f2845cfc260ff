package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/subglot/subglot/pkg/log"
)

func newRootCommand() *cobra.Command {
	var logLevelFlag string
	var envFileFlag string

	rootCmd := &cobra.Command{
		Use:           "subglot",
		Short:         "Subtitle matching and LLM translation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; the environment may already be set.
			_ = godotenv.Load(envFileFlag)
			log.GetLogger().SetLevel(log.ParseLevel(logLevelFlag))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Path to an env file loaded before startup")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newCleanupCommand())

	return rootCmd
}
