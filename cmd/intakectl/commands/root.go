// Package commands is the operator CLI of the intake service: it runs
// documents through the analysis pipeline offline, checks income readings,
// and seeds the identity-linkage registry.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"enrollment/internal/platform/config"
	"enrollment/internal/platform/logger"
)

var (
	logLevel string

	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "intakectl",
	Short:         "Operator tooling for the welfare intake service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.FromEnv()
		if logLevel == "" {
			logLevel = cfg.Server.LogLevel
		}
		log = logger.New(logLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
