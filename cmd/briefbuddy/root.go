package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "briefbuddy",
		Short:         "Conversational intake of creative briefs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML or JSON config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(flags),
		newChatCmd(flags),
	)
	return cmd
}
