package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/wire"
)

// CleanLocksCmd returns the clean-locks command.
func CleanLocksCmd() *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:          "clean-locks",
		Short:        "Remove stale repo locks left by killed runs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if repo != "" {
				if err := wire.LockService().Release(ctx, repo); err != nil {
					return fmt.Errorf("failed to clear lock: %w", err)
				}
				fmt.Printf("Cleared lock for %s\n", repo)
				return nil
			}

			n, err := wire.LockService().Sweep(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear locks: %w", err)
			}
			fmt.Printf("Cleared %d lock(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "clear only this repo's lock")
	return cmd
}
