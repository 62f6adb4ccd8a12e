package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/config"
)

// ConfigCmd returns the config command group.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the configuration",
	}
	cmd.AddCommand(configValidateCmd())
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "validate",
		Short:        "Validate the config file and report every problem",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, errs := config.Load(path)
			if len(errs) > 0 {
				for _, msg := range errs {
					fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgRed).Sprint("✗"), msg)
				}
				return fmt.Errorf("%d problem(s) found", len(errs))
			}

			fmt.Printf("%s config OK\n", color.New(color.FgGreen).Sprint("✓"))
			fmt.Printf("  jira:      %s (api v%d)\n", cfg.Jira.BaseURL, cfg.Jira.APIVersion)
			fmt.Printf("  workspace: %s\n", cfg.WorkspaceRoot())
			fmt.Printf("  agent:     %s (timeout %dm)\n", cfg.Agent.Command, cfg.Agent.TimeoutMinutes)
			return nil
		},
	}
}
