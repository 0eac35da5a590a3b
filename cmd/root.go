package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "ov",
		Short:         "Oracle Validator CLI (ov): run signed-price validation for configured accounts",
		Long:          "ov authenticates oracle validator accounts, keeps their sessions fresh, fetches signed price batches, submits validation verdicts through the configured proxy pool, and tracks per-account counters.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.ov/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(&configPath),
		newStatusCmd(&configPath),
		newHistoryCmd(&configPath),
	)

	return rootCmd
}
