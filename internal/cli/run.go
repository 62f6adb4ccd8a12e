// Package cli contains the cobra commands for the t2p binary.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/core/runerr"
	"github.com/example/t2p/internal/ports/primary"
	"github.com/example/t2p/internal/wire"
)

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	var opts primary.RunOptions

	cmd := &cobra.Command{
		Use:   "run <ticket-key>",
		Short: "Run the full pipeline for one ticket",
		Long: `Run the full ticket-to-PR pipeline for one ticket key:
fetch the ticket, resolve and lock the repo, invoke the coding agent,
enforce guardrails, and open (or adopt) a pull request.

Exit codes: 0 = PR URL printed, 2 = needs human / repo busy, 3 = failed.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			url, err := wire.RunService().Run(context.Background(), args[0], opts)
			exitRun(args[0], url, err)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "skip the field and clean-worktree gates")
	cmd.Flags().BoolVar(&opts.Rerun, "rerun", false, "run again even if a PR is already recorded")
	cmd.Flags().BoolVar(&opts.NoComment, "no-comment", false, "do not comment the PR URL on the ticket")
	return cmd
}

// RunNextCmd returns the run-next command.
func RunNextCmd() *cobra.Command {
	var opts primary.RunOptions

	cmd := &cobra.Command{
		Use:          "run-next",
		Short:        "Run the first eligible ticket from the configured query",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			key, url, err := wire.RunService().RunNext(context.Background(), opts)
			if err == nil && key == "" {
				fmt.Println("No eligible tickets found")
				return
			}
			exitRun(key, url, err)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "skip the field and clean-worktree gates")
	cmd.Flags().BoolVar(&opts.NoComment, "no-comment", false, "do not comment the PR URL on the ticket")
	return cmd
}

// exitRun prints the pipeline outcome and exits with the contract code:
// 0 = PR URL, 2 = needs human / busy, 3 = failed.
func exitRun(key, url string, err error) {
	if err == nil {
		fmt.Printf("%s %s: %s\n", color.New(color.FgGreen).Sprint("✓"), key, url)
		return
	}

	switch runerr.KindOf(err) {
	case runerr.KindBusy:
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.New(color.FgYellow).Sprint("⧗"), key, err)
	case runerr.KindNeedsHuman:
		fmt.Fprintf(os.Stderr, "%s %s needs human: %v\n", color.New(color.FgYellow).Sprint("!"), key, err)
	default:
		fmt.Fprintf(os.Stderr, "%s %s failed: %v\n", color.New(color.FgRed).Sprint("✗"), key, err)
	}
	os.Exit(runerr.ExitCode(err))
}
