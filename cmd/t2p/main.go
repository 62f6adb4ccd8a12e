package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/cli"
	"github.com/example/t2p/internal/version"
	"github.com/example/t2p/internal/wire"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "t2p",
		Short:   "t2p - ticket to pull request",
		Version: version.String(),
		Long: `t2p turns a ticket into a reviewed pull request: it fetches the ticket,
locks the target repo, drives a headless coding agent on a fresh branch,
enforces guardrails on the result, and opens a draft PR.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				wire.SetConfigPath(configPath)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $T2P_CONFIG or ~/.t2p/config.yaml)")

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.RunNextCmd())
	rootCmd.AddCommand(cli.ScanCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.OpenCmd())
	rootCmd.AddCommand(cli.TailCmd())
	rootCmd.AddCommand(cli.DBCmd())
	rootCmd.AddCommand(cli.CleanLocksCmd())
	rootCmd.AddCommand(cli.ConfigCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
